package segment

import "fmt"

// BuildChain resolves configured engine names into a fallback chain. Order
// is preserved; the grapheme engine is appended when missing so the chain
// always terminates.
func BuildChain(names []string) ([]Engine, error) {
	var chain []Engine
	for _, name := range names {
		switch name {
		case "cluster":
			chain = append(chain, NewClusterEngine())
		case "grapheme":
			chain = append(chain, NewGraphemeEngine())
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, name)
		}
	}
	if len(chain) == 0 || chain[len(chain)-1].Name() != "grapheme" {
		chain = append(chain, NewGraphemeEngine())
	}
	return chain, nil
}
