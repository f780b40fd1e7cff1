package rewards

import (
	"fmt"
	"math/rand/v2"

	"github.com/dsoto/datarun/internal/catalog"
)

// ItemDropCount is the number of items granted per mission completion.
const ItemDropCount = 3

// Reward is the rolled outcome of a single mission completion.
type Reward struct {
	Fragments int
	LogKeys   int
	XP        int
	Items     []catalog.Item
}

// dropRarities gates which item rarities each difficulty may drop.
var dropRarities = map[Difficulty][]catalog.Rarity{
	DifficultyEasy:   {catalog.RarityCommon},
	DifficultyNormal: {catalog.RarityCommon, catalog.RarityUncommon},
	DifficultyHard:   {catalog.RarityUncommon, catalog.RarityRare},
}

// DropRarities returns the rarities a difficulty is allowed to drop.
func DropRarities(d Difficulty) []catalog.Rarity {
	return dropRarities[d]
}

// Roller rolls rewards using an injectable random source so tests can be
// deterministic.
type Roller struct {
	rng *rand.Rand
}

// NewRoller creates a Roller seeded from the system source.
func NewRoller() *Roller {
	return &Roller{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeededRoller creates a Roller with a fixed seed.
func NewSeededRoller(seed uint64) *Roller {
	return &Roller{rng: rand.New(rand.NewPCG(seed, seed))}
}

// intn returns a uniform value in [min, max].
func (r *Roller) intn(min, max int) int {
	if max <= min {
		return min
	}
	return min + r.rng.IntN(max-min+1)
}

// Roll produces the currency and XP reward for a completed mission. Every
// range in the table, including Hard log-keys, is rolled fresh per call.
func (r *Roller) Roll(d Difficulty) (Reward, error) {
	spec, err := SpecFor(d)
	if err != nil {
		return Reward{}, err
	}
	return Reward{
		Fragments: r.intn(spec.FragmentMin, spec.FragmentMax),
		LogKeys:   r.intn(spec.LogKeyMin, spec.LogKeyMax),
		XP:        spec.XP,
	}, nil
}

// RollItems picks n random items from the catalog whose rarity the
// difficulty allows. Duplicates are permitted. An empty eligible pool
// grants zero items rather than failing.
func (r *Roller) RollItems(c *catalog.Catalog, d Difficulty, n int) []catalog.Item {
	pool := c.WithRarities(DropRarities(d))
	if len(pool) == 0 {
		return nil
	}
	out := make([]catalog.Item, 0, n)
	for range n {
		out = append(out, pool[r.rng.IntN(len(pool))])
	}
	return out
}

// RollCompletion rolls the full completion reward: currencies, XP, and
// ItemDropCount items.
func (r *Roller) RollCompletion(c *catalog.Catalog, d Difficulty) (Reward, error) {
	reward, err := r.Roll(d)
	if err != nil {
		return Reward{}, err
	}
	reward.Items = r.RollItems(c, d, ItemDropCount)
	return reward, nil
}

// Summary renders a one-line description of the reward.
func (reward Reward) Summary() string {
	s := fmt.Sprintf("+%d fragments, +%d log-keys, +%d XP", reward.Fragments, reward.LogKeys, reward.XP)
	for _, it := range reward.Items {
		s += fmt.Sprintf(", %s %s", it.Rarity.Icon(), it.Name)
	}
	return s
}
