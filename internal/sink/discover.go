package sink

import (
	"errors"
	"log/slog"

	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/media"
)

// MaxWalks caps the number of walks FindElement makes over a bin
const MaxWalks = 8

// WalkBudget is the number of walks allowed over a bin with n children:
// one walk per child that can change under us plus the final one, at least 2
// and at most MaxWalks.
func WalkBudget(children int) int {
	return min(max(children+1, 2), MaxWalks)
}

// Discovery is the outcome of FindElement
type Discovery struct {
	Element media.Element
	Found   bool
	// Walks is how many walks were started
	Walks int
	// Exhausted is set when the walk budget ran out on resync faults
	Exhausted bool
}

// FindElement walks bin's direct children looking for an element created by
// factory. A resync fault restarts the walk from the first child; after
// WalkBudget walks the search gives up and reports not found.
func FindElement(bin media.Bin, factory string) Discovery {
	budget := WalkBudget(bin.NumChildren())

	it := bin.IterateElements()
	defer it.Close()

	for walk := 1; walk <= budget; walk++ {
		el, err := scan(it, factory)
		switch {
		case err == nil:
			return Discovery{Element: el, Found: true, Walks: walk}
		case errors.Is(err, media.ErrIteratorResync):
			slog.Debug("render-bridge: bin changed during walk, restarting",
				"bin", bin.Name(),
				"walk", walk,
				"budget", budget,
			)
			if walk < budget {
				it.Resync()
			}
		default:
			// Done (or an iterator error): no such child
			return Discovery{Walks: walk}
		}
	}

	slog.Warn("render-bridge: element discovery gave up",
		"bin", bin.Name(),
		"factory", factory,
		"walks", budget,
	)
	return Discovery{Walks: budget, Exhausted: true}
}

// scan returns the first element of factory, ErrIteratorDone when there is
// none and ErrIteratorResync on a fault.
func scan(it media.ElementIterator, factory string) (media.Element, error) {
	for {
		el, err := it.Next()
		if err != nil {
			return nil, err
		}
		if el.FactoryName() == factory {
			return el, nil
		}
	}
}
