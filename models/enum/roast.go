package enum

// Roast 表示咖啡的烘焙程度
type Roast string

const (
	RoastLight      Roast = "light"
	RoastMedium     Roast = "medium"
	RoastMediumDark Roast = "medium-dark"
)

func (r Roast) Valid() bool {
	switch r {
	case RoastLight, RoastMedium, RoastMediumDark:
		return true
	}
	return false
}
