package poem

import "log/slog"

// Compose regroups visual stanzas into logical stanzas of formula.Len() lines.
//
// Pagination in the source markup can split one logical stanza into several
// visual ones; merging them back keeps formula index arithmetic aligned.
// While the last group is short of the target it is extended with the whole
// next visual stanza; otherwise that stanza seeds a new group. Visual stanzas
// are never split, so a group may end up longer than the target when a
// visual stanza overshoots it. The input is never aliased by the output.
func Compose(stanzas []Stanza, formula Formula) []Stanza {
	target := formula.Len()
	if target == 0 {
		return nil
	}

	groups := []Stanza{{}}
	for _, stanza := range stanzas {
		last := len(groups) - 1
		if len(groups[last]) < target {
			groups[last] = append(groups[last], stanza...)
			continue
		}
		groups = append(groups, append(make(Stanza, 0, len(stanza)), stanza...))
	}

	slog.Debug("Stanzas composed", "visual", len(stanzas), "logical", len(groups), "target", target)
	return groups
}
