package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/common/expfmt"
)

// WriteText writes every registered metric in the Prometheus text format.
func WriteText(w io.Writer) error {
	families, err := customRegistry.Gather()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrGatherFailed, err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("%w: %w", ErrGatherFailed, err)
		}
	}
	return nil
}
