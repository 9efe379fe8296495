package reconcile

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/status"
)

func q(units int64) types.Quantity { return types.NewQuantity(units) }

func ref(key string, parent id.ID, qty int64) LineRef {
	p := parent
	return LineRef{Key: key, ParentLineID: &p, Quantity: q(qty)}
}

func TestLineKey(t *testing.T) {
	lineID := id.New()
	assert.Equal(t, lineID.String(), LineKey(lineID, "abc"))
	assert.Equal(t, "tmp:abc", LineKey(id.ID{}, "abc"))
	assert.Equal(t, "", LineKey(id.ID{}, ""))
}

func TestParentDeltas(t *testing.T) {
	p1, p2 := id.New(), id.New()

	tests := []struct {
		name    string
		prior   []LineRef
		current []LineRef
		want    map[id.ID]types.Quantity
	}{
		{
			name:    "new document",
			current: []LineRef{ref("tmp:a", p1, 60), ref("tmp:b", p2, 5)},
			want:    map[id.ID]types.Quantity{p1: q(60), p2: q(5)},
		},
		{
			name:    "edited quantity",
			prior:   []LineRef{ref("l1", p1, 60)},
			current: []LineRef{ref("l1", p1, 45)},
			want:    map[id.ID]types.Quantity{p1: q(-15)},
		},
		{
			name:    "removed line",
			prior:   []LineRef{ref("l1", p1, 60), ref("l2", p2, 5)},
			current: []LineRef{ref("l2", p2, 5)},
			want:    map[id.ID]types.Quantity{p1: q(-60)},
		},
		{
			name:    "two local lines share a parent",
			prior:   []LineRef{ref("l1", p1, 10), ref("l2", p1, 20)},
			current: []LineRef{ref("l1", p1, 15), ref("tmp:x", p1, 5)},
			want:    map[id.ID]types.Quantity{p1: q(0 + 5 - 20 + 5)},
		},
		{
			name:    "line moved to another parent",
			prior:   []LineRef{ref("l1", p1, 10)},
			current: []LineRef{ref("l1", p2, 12)},
			want:    map[id.ID]types.Quantity{p1: q(-10), p2: q(12)},
		},
		{
			name:    "lines without parent are ignored",
			prior:   []LineRef{{Key: "l1", Quantity: q(3)}},
			current: []LineRef{{Key: "l1", Quantity: q(9)}},
			want:    map[id.ID]types.Quantity{},
		},
		{
			name:    "unchanged document produces nothing",
			prior:   []LineRef{ref("l1", p1, 10)},
			current: []LineRef{ref("l1", p1, 10)},
			want:    map[id.ID]types.Quantity{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParentDeltas(tt.prior, tt.current)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApply_Clamps(t *testing.T) {
	lineID := id.New()
	lines := []ParentLine{{LineID: lineID, Ordered: q(100), Consumed: q(40)}}

	for _, delta := range []int64{-1000, -41, -40, -1, 0, 1, 60, 61, 1000} {
		out, adj := Apply(lines, map[id.ID]types.Quantity{lineID: q(delta)})
		require.Len(t, out, 1)
		assert.GreaterOrEqual(t, out[0].Consumed, types.Quantity(0), "delta %d", delta)
		assert.LessOrEqual(t, out[0].Consumed, q(100), "delta %d", delta)
		require.Len(t, adj, 1)
		assert.Equal(t, delta < -40 || delta > 60, adj[0].Clamped, "delta %d", delta)
	}
	assert.Equal(t, q(40), lines[0].Consumed, "input must not be mutated")
}

func TestApply_IgnoresUnknownParents(t *testing.T) {
	lines := []ParentLine{{LineID: id.New(), Ordered: q(5)}}
	out, adj := Apply(lines, map[id.ID]types.Quantity{id.New(): q(3)})
	assert.Equal(t, lines, out)
	assert.Empty(t, adj)
}

func TestDeriveStatus(t *testing.T) {
	assert.Equal(t, status.Open, DeriveStatus(nil))
	assert.Equal(t, status.Closed, DeriveStatus([]ParentLine{
		{Ordered: q(5), Consumed: q(5)},
		{Ordered: q(1), Consumed: q(1)},
	}))
	assert.Equal(t, status.Open, DeriveStatus([]ParentLine{
		{Ordered: q(5), Consumed: q(5)},
		{Ordered: q(1), Consumed: 0},
	}))
}

// Receipt A takes 60, receipt B takes 40, then A is deleted.
func TestScenario_PartialReceiptsAndDelete(t *testing.T) {
	poLine := id.New()
	po := []ParentLine{{LineID: poLine, Ordered: q(100)}}

	receiptA := []LineRef{ref("a1", poLine, 60)}
	receiptB := []LineRef{ref("b1", poLine, 40)}

	po, _ = Apply(po, ParentDeltas(nil, receiptA))
	assert.Equal(t, q(60), po[0].Consumed)
	assert.Equal(t, status.Open, DeriveStatus(po))

	po, _ = Apply(po, ParentDeltas(nil, receiptB))
	assert.Equal(t, q(100), po[0].Consumed)
	assert.Equal(t, status.Closed, DeriveStatus(po))

	po, _ = Apply(po, ParentDeltas(receiptA, nil))
	assert.Equal(t, q(40), po[0].Consumed)
	assert.Equal(t, status.Open, DeriveStatus(po))
}

// After any sequence of edits the counter equals the sum of current child lines,
// as long as that sum stays within the ordered quantity.
func TestProperty_CounterTracksCurrentLines(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	parent := id.New()
	const ordered = 1_000

	for run := 0; run < 200; run++ {
		lines := []ParentLine{{LineID: parent, Ordered: q(ordered)}}
		var current []LineRef
		nextKey := 0

		for step := 0; step < 25; step++ {
			prior := append([]LineRef(nil), current...)
			switch op := rng.Intn(3); {
			case op == 0 || len(current) == 0:
				nextKey++
				current = append(current, ref(fmt.Sprintf("k%d", nextKey), parent, int64(rng.Intn(40))))
			case op == 1:
				i := rng.Intn(len(current))
				current[i].Quantity = q(int64(rng.Intn(40)))
			default:
				i := rng.Intn(len(current))
				current = append(current[:i:i], current[i+1:]...)
			}

			lines, _ = Apply(lines, ParentDeltas(prior, current))

			var sum types.Quantity
			for _, l := range current {
				sum += l.Quantity
			}
			require.LessOrEqual(t, sum, q(ordered))
			require.Equal(t, sum, lines[0].Consumed, "run %d step %d", run, step)
		}
	}
}
