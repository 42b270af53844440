package reward

import (
	"regexp"
	"strconv"
)

// ResetPeriod is the symbolic cooldown name of a reward (DAILY, WEEKLY, ...).
// Values outside the known set are kept verbatim.
type ResetPeriod string

const (
	ResetDaily   ResetPeriod = "DAILY"
	ResetWeekly  ResetPeriod = "WEEKLY"
	ResetMonthly ResetPeriod = "MONTHLY"
	ResetSingle  ResetPeriod = "SINGLE"
)

// ResetPeriods lists the known periods in code order.
var ResetPeriods = []ResetPeriod{ResetDaily, ResetWeekly, ResetMonthly, ResetSingle}

// Code returns the numeric code used by the flat-text format.
// Unknown names map to DAILY (1).
func (p ResetPeriod) Code() int {
	switch p {
	case ResetWeekly:
		return 2
	case ResetMonthly:
		return 3
	case ResetSingle:
		return 4
	default:
		return 1
	}
}

// Known reports whether p is one of the four defined periods.
func (p ResetPeriod) Known() bool {
	for _, k := range ResetPeriods {
		if p == k {
			return true
		}
	}
	return false
}

// ResetPeriodFromCode maps a flat-text numeric code back to its name.
// Unknown codes are returned as-is.
func ResetPeriodFromCode(raw string) ResetPeriod {
	n, err := strconv.Atoi(raw)
	if err == nil && n >= 1 && n <= len(ResetPeriods) {
		return ResetPeriods[n-1]
	}
	return ResetPeriod(raw)
}

const (
	DefaultMinLevel = 0
	DefaultMaxLevel = 99
	// AllClasses is the class filter sentinel meaning "no restriction".
	AllClasses = -1
	// KillMob is the requirement type stored as condition_count in flat text.
	KillMob = "kill_mob"
)

// RewardItem is one granted item stack.
type RewardItem struct {
	ItemID int `json:"item_id" validate:"gte=0"`
	Count  int `json:"count" validate:"gte=0"`
}

var requirementTypeRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// ValidRequirementType reports whether typ can be written both as a markup
// element name and as a flat-text key.
func ValidRequirementType(typ string) bool {
	return requirementTypeRe.MatchString(typ)
}

// Requirement is an open-ended condition kind with its value kept as text.
type Requirement struct {
	Type  string `json:"type" validate:"required"`
	Value string `json:"value"`
}

// Reward is one periodic-grant record.
type Reward struct {
	ID           int           `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	ResetPeriod  ResetPeriod   `json:"reset_period"`
	Items        []RewardItem  `json:"reward_items"`
	Requirements []Requirement `json:"requirements"`
	ClassFilter  []int         `json:"class_filter"`
	MinLevel     int           `json:"min_level"`
	MaxLevel     int           `json:"max_level"`
	Category     int           `json:"category"`
	// TargetLocScale is nil when absent; an empty non-nil slice is a distinct value.
	TargetLocScale *[]float64 `json:"targetloc_scale,omitempty"`
	MobIDs         []int      `json:"mob_ids"`
}

// New returns a reward with every optional field at its default.
func New(id int) *Reward {
	return &Reward{
		ID:           id,
		ResetPeriod:  ResetDaily,
		Items:        []RewardItem{},
		Requirements: []Requirement{},
		ClassFilter:  []int{AllClasses},
		MinLevel:     DefaultMinLevel,
		MaxLevel:     DefaultMaxLevel,
		MobIDs:       []int{},
	}
}

// Clone returns a deep copy.
func (r *Reward) Clone() *Reward {
	if r == nil {
		return nil
	}
	c := *r
	c.Items = append([]RewardItem{}, r.Items...)
	c.Requirements = append([]Requirement{}, r.Requirements...)
	c.ClassFilter = append([]int{}, r.ClassFilter...)
	c.MobIDs = append([]int{}, r.MobIDs...)
	if r.TargetLocScale != nil {
		s := append([]float64{}, (*r.TargetLocScale)...)
		c.TargetLocScale = &s
	}
	return &c
}

// Normalize fills nil collections with their defaults so the reward is
// always serializable. Level bounds are left as given.
func (r *Reward) Normalize() {
	if r.Items == nil {
		r.Items = []RewardItem{}
	}
	if r.Requirements == nil {
		r.Requirements = []Requirement{}
	}
	if len(r.ClassFilter) == 0 {
		r.ClassFilter = []int{AllClasses}
	}
	if r.MobIDs == nil {
		r.MobIDs = []int{}
	}
}

// RequirementValue returns the value of the first requirement of the given type.
func (r *Reward) RequirementValue(typ string) (string, bool) {
	for _, req := range r.Requirements {
		if req.Type == typ {
			return req.Value, true
		}
	}
	return "", false
}

// ScaleList is a helper for building an optional targetloc_scale value.
func ScaleList(v ...float64) *[]float64 {
	s := append([]float64{}, v...)
	return &s
}
