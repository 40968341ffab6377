package strategies

import "sort"

var registry = map[string]Mode{
	Strict.String():       Strict,
	WeightedVote.String(): WeightedVote,
}

// Names lists the registered strategy names.
func Names() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Get builds the evaluator registered under name.
func Get(name string, th Thresholds) (Evaluator, error) {
	mode, err := ParseMode(name)
	if err != nil {
		return nil, err
	}
	return New(mode, th)
}
