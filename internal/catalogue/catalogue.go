// Package catalogue builds the list of scenarios to run.
package catalogue

import (
	"errors"
	"fmt"

	"github.com/tlsinterop/tlsinterop/internal/config"
	"github.com/tlsinterop/tlsinterop/internal/model"
)

// ErrPortRangeExhausted indicates the catalogue has more scenarios than
// there are ports in the configured range.
var ErrPortRangeExhausted = errors.New("catalogue: port range exhausted")

// Build returns the cross product of test cases, servers and clients, in
// this nesting order. The scenario at index i uses port PortStart+i.
func Build(cfg *config.Config) ([]model.ScenarioSpec, error) {
	size := len(cfg.EnabledTests) * len(cfg.Servers) * len(cfg.Clients)
	available := int(cfg.PortEnd) - int(cfg.PortStart) + 1
	if size > available {
		return nil, fmt.Errorf("%w: %d scenarios but only %d ports in [%d, %d]",
			ErrPortRangeExhausted, size, available, cfg.PortStart, cfg.PortEnd)
	}
	out := make([]model.ScenarioSpec, 0, size)
	for _, tc := range cfg.EnabledTests {
		for _, server := range cfg.Servers {
			for _, client := range cfg.Clients {
				out = append(out, model.ScenarioSpec{
					TestCase: tc,
					Server:   server,
					Client:   client,
					Port:     cfg.PortStart + uint16(len(out)),
				})
			}
		}
	}
	return out, nil
}
