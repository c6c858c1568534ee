package mock

import (
	"context"
	"fmt"

	"github.com/DMarby/additive-mask/internal/converter"
)

// Processor is a mock image processor where every conversion fails
type Processor struct {
}

// Transform returns an error
func (p *Processor) Transform(ctx context.Context, name string, data []byte) ([]byte, error) {
	return nil, fmt.Errorf("processing error")
}

// Convert returns an error
func (p *Processor) Convert(ctx context.Context, path string) (*converter.Result, error) {
	return nil, fmt.Errorf("processing error")
}
