package scoring

// Category identifies one of the nine fixed scoring buckets.
type Category string

const (
	CategoryHighestTotal Category = "highest_total"
	CategoryPair         Category = "pair"
	CategoryTwoPair      Category = "two_pair"
	CategoryThreeOfKind  Category = "three_of_kind"
	CategoryFourOfKind   Category = "four_of_kind"
	CategoryRunOf3       Category = "run_of_3"
	CategoryRunOf4       Category = "run_of_4"
	CategoryRunOf5       Category = "run_of_5"
	CategoryRunOf6       Category = "run_of_6"
)

// Categories lists every scoring bucket in canonical display order. Every
// score sheet produced by this package contains exactly these categories,
// each exactly once, in this order.
var Categories = []Category{
	CategoryHighestTotal,
	CategoryPair,
	CategoryTwoPair,
	CategoryThreeOfKind,
	CategoryFourOfKind,
	CategoryRunOf3,
	CategoryRunOf4,
	CategoryRunOf5,
	CategoryRunOf6,
}

// String returns a human-readable category label.
func (c Category) String() string {
	switch c {
	case CategoryHighestTotal:
		return "Highest total"
	case CategoryPair:
		return "Pair"
	case CategoryTwoPair:
		return "Two pair"
	case CategoryThreeOfKind:
		return "Three of a kind"
	case CategoryFourOfKind:
		return "Four of a kind"
	case CategoryRunOf3:
		return "Run of 3"
	case CategoryRunOf4:
		return "Run of 4"
	case CategoryRunOf5:
		return "Run of 5"
	case CategoryRunOf6:
		return "Run of 6"
	default:
		return "Unknown"
	}
}

// Valid reports whether c is one of the nine fixed categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// runLength returns the required run length for run categories, or 0 for
// non-run categories.
func (c Category) runLength() int {
	switch c {
	case CategoryRunOf3:
		return 3
	case CategoryRunOf4:
		return 4
	case CategoryRunOf5:
		return 5
	case CategoryRunOf6:
		return 6
	default:
		return 0
	}
}
