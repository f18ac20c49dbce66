package lineage

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/Spok95/fishfarm/internal/apperr"
)

const sumTolerance = 0.01

func round2(x float64) float64 { return math.Round(x*100) / 100 }

// Shares splits 100% between the recipient's current stock and the incoming
// transfer by mass. recipientMass is the balance immediately before the
// transfer lands; transferMass must be positive.
func Shares(recipientMass, transferMass float64) (recipientShare, sourceShare float64, err error) {
	total := recipientMass + transferMass
	if total <= 0 {
		return 0, 0, apperr.Domain("non-positive total")
	}
	recipientShare = round2(recipientMass / total * 100)
	sourceShare = round2(transferMass / total * 100)

	// Rounding can leave the pair off 100 by a cent; rescale and re-round.
	if sum := recipientShare + sourceShare; math.Abs(sum-100) > sumTolerance && sum > 0 {
		recipientShare = round2(recipientShare * 100 / sum)
		sourceShare = round2(sourceShare * 100 / sum)
	}
	if recipientShare < 0 {
		recipientShare = 0
	}
	if sourceShare < 0 {
		sourceShare = 0
	}
	return recipientShare, sourceShare, nil
}

// Distribute scales one side's flattened components down to its share of the
// merged stock, preserving the relative proportions of the deeper history.
func Distribute(comps []Component, share float64) []Component {
	out := make([]Component, 0, len(comps))
	for _, c := range comps {
		out = append(out, Component{
			PlantingID: c.PlantingID,
			Name:       c.Name,
			Percentage: round2(c.Percentage * share / 100),
		})
	}
	return out
}

// Merge unions two distributions, summing percentages where the same planting
// appears on both sides. Order: recipient components first, then new source
// plantings in their original order.
func Merge(recipient, source []Component) []Component {
	out := make([]Component, 0, len(recipient)+len(source))
	index := make(map[int64]int, len(recipient))
	for _, c := range recipient {
		index[c.PlantingID] = len(out)
		out = append(out, c)
	}
	for _, c := range source {
		if i, ok := index[c.PlantingID]; ok {
			out[i].Percentage = round2(out[i].Percentage + c.Percentage)
			continue
		}
		index[c.PlantingID] = len(out)
		out = append(out, c)
	}
	return out
}

// Normalize rescales the list so the percentages sum to 100, rounding to two
// decimals. Any leftover cent from rounding goes to the largest component, so
// the final sum is exactly 100.00.
func Normalize(comps []Component) []Component {
	var total float64
	for _, c := range comps {
		total += c.Percentage
	}
	if total <= 0 {
		return comps
	}
	out := make([]Component, len(comps))
	var sum float64
	largest := 0
	for i, c := range comps {
		c.Percentage = round2(c.Percentage * 100 / total)
		out[i] = c
		sum += c.Percentage
		if c.Percentage > out[largest].Percentage {
			largest = i
		}
	}
	if residual := round2(100 - sum); residual != 0 {
		out[largest].Percentage = round2(out[largest].Percentage + residual)
	}
	return out
}

// Signature — the identity of a mix: its sorted, deduplicated planting-id set.
// Percentages are deliberately not part of the identity.
func Signature(comps []Component) string {
	seen := make(map[int64]bool, len(comps))
	ids := make([]int64, 0, len(comps))
	for _, c := range comps {
		if !seen[c.PlantingID] {
			seen[c.PlantingID] = true
			ids = append(ids, c.PlantingID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, "_")
}

// BlendName builds the human-readable mix name, recipient side first.
func BlendName(recipientName, sourceName string, recipientShare, sourceShare float64) string {
	return fmt.Sprintf("%s / %s (%.2f%% / %.2f%%)", recipientName, sourceName, recipientShare, sourceShare)
}

// InheritBreed keeps the breed only when both sides agree.
func InheritBreed(a, b *string) *string {
	if a != nil && b != nil && *a == *b {
		breed := *a
		return &breed
	}
	return nil
}
