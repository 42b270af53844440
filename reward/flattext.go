package reward

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

const (
	flatBegin = "onedayreward_begin"
	flatEnd   = "onedayreward_end"
)

var (
	flatRecordRe = regexp.MustCompile(`(?s)` + flatBegin + `(.*?)` + flatEnd)
	flatItemRe   = regexp.MustCompile(`\{(\d+);(\d+)\}`)
)

// flatReserved keys are format metadata and never become requirements.
var flatReserved = map[string]bool{
	"id":                  true,
	"reward_id":           true,
	"reward_name":         true,
	"reward_desc":         true,
	"reward_period":       true,
	"class_filter":        true,
	"reset_period":        true,
	"condition_count":     true,
	"condition_level":     true,
	"can_condition_level": true,
	"can_condition_day":   true,
	"category":            true,
	"reward_item":         true,
	"targetloc_scale":     true,
	"distribution_type":   true,
	"mob_ids":             true,
	flatBegin:             true,
	flatEnd:               true,
}

// flatFields is a key=value record in first-seen key order; a repeated key
// keeps its first position and takes the last value.
type flatFields struct {
	keys []string
	vals map[string]string
}

func tokenizeFlat(block string) *flatFields {
	f := &flatFields{vals: make(map[string]string)}
	for _, part := range strings.Split(block, "\t") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, seen := f.vals[key]; !seen {
			f.keys = append(f.keys, key)
		}
		f.vals[key] = strings.TrimSpace(value)
	}
	return f
}

func (f *flatFields) get(key string) (string, bool) {
	v, ok := f.vals[key]
	return v, ok
}

// ParseFlatText reads every begin/end block of a flat-text document.
// Text outside blocks and unterminated blocks are ignored.
func ParseFlatText(r io.Reader) ([]*Reward, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read flat text: %v", ErrIO, err)
	}
	blocks := flatRecordRe.FindAllStringSubmatch(string(data), -1)
	out := make([]*Reward, 0, len(blocks))
	for i, m := range blocks {
		rw, err := parseFlatRecord(i, m[1])
		if err != nil {
			return nil, err
		}
		out = append(out, rw)
	}
	return out, nil
}

func parseFlatRecord(idx int, block string) (*Reward, error) {
	fail := func(field, value string, err error) error {
		return &ParseError{Format: FormatFlat, Record: idx, Field: field, Value: value, Err: err}
	}
	f := tokenizeFlat(block)
	for _, key := range []string{"id", "reward_name", "reward_desc", "reset_period"} {
		if _, ok := f.get(key); !ok {
			return nil, fail(key, "", ErrMissingField)
		}
	}

	idRaw, _ := f.get("id")
	id, err := strconv.Atoi(idRaw)
	if err != nil {
		return nil, fail("id", idRaw, ErrInvalidInteger)
	}
	rw := New(id)
	rw.Name = strings.Trim(f.vals["reward_name"], "[]")
	rw.Description = strings.Trim(f.vals["reward_desc"], "[]")
	rw.ResetPeriod = ResetPeriodFromCode(f.vals["reset_period"])
	if v, ok := f.get("reward_period"); ok {
		if name := strings.Trim(v, "[]"); name != "" {
			rw.ResetPeriod = ResetPeriod(name)
		}
	}

	if v, ok := f.get("reward_item"); ok {
		for _, m := range flatItemRe.FindAllStringSubmatch(v, -1) {
			itemID, err1 := strconv.Atoi(m[1])
			count, err2 := strconv.Atoi(m[2])
			if err1 != nil || err2 != nil {
				return nil, fail("reward_item", m[0], ErrInvalidInteger)
			}
			rw.Items = append(rw.Items, RewardItem{ItemID: itemID, Count: count})
		}
	}

	if v, ok := f.get("class_filter"); ok {
		ids, err := splitInts(trimBraces(v))
		if err != nil {
			return nil, fail("class_filter", v, err)
		}
		if len(ids) > 0 {
			rw.ClassFilter = ids
		}
	}

	if v, ok := f.get("can_condition_level"); ok {
		parts := strings.Split(trimBraces(v), ";")
		if len(parts) >= 2 {
			if rw.MinLevel, err = strconv.Atoi(strings.TrimSpace(parts[0])); err != nil {
				return nil, fail("can_condition_level", v, ErrInvalidInteger)
			}
			if rw.MaxLevel, err = strconv.Atoi(strings.TrimSpace(parts[1])); err != nil {
				return nil, fail("can_condition_level", v, ErrInvalidInteger)
			}
		}
	}

	for _, key := range f.keys {
		v := f.vals[key]
		if key == "condition_count" {
			// any all-digit count above zero, however long; kept as text
			if isDigits(v) && strings.TrimLeft(v, "0") != "" {
				rw.Requirements = append(rw.Requirements, Requirement{Type: KillMob, Value: v})
			}
			continue
		}
		if flatReserved[key] || v == "" {
			continue
		}
		rw.Requirements = append(rw.Requirements, Requirement{Type: key, Value: v})
	}

	if v, ok := f.get("targetloc_scale"); ok && trimBraces(v) != "" {
		scale, err := splitFloats(trimBraces(v))
		if err != nil {
			return nil, fail("targetloc_scale", v, err)
		}
		rw.TargetLocScale = &scale
	}

	if v, ok := f.get("category"); ok && isDigits(v) {
		if rw.Category, err = strconv.Atoi(v); err != nil {
			return nil, fail("category", v, ErrInvalidInteger)
		}
	}

	if v, ok := f.get("mob_ids"); ok {
		ids, err := splitInts(trimBraces(v))
		if err != nil {
			return nil, fail("mob_ids", v, err)
		}
		rw.MobIDs = ids
	}
	return rw, nil
}

// WriteFlatText renders rewards as flat-text blocks in the fixed field order.
func WriteFlatText(w io.Writer, rewards []*Reward) error {
	bw := bufio.NewWriter(w)
	for _, rw := range rewards {
		writeFlatRecord(bw, rw)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: write flat text: %v", ErrIO, err)
	}
	return nil
}

func writeFlatRecord(bw *bufio.Writer, rw *Reward) {
	field := func(key, value string) {
		bw.WriteString(key)
		bw.WriteByte('=')
		bw.WriteString(value)
		bw.WriteByte('\t')
	}

	bw.WriteString(flatBegin + "\t")
	field("id", strconv.Itoa(rw.ID))
	field("reward_id", strconv.Itoa(rw.ID))
	field("reward_name", "["+rw.Name+"]")
	field("reward_desc", "["+rw.Description+"]")
	field("reward_period", "["+string(rw.ResetPeriod)+"]")
	classes := rw.ClassFilter
	if len(classes) == 0 {
		classes = []int{AllClasses}
	}
	field("class_filter", "{"+joinInts(classes)+"}")
	field("reset_period", strconv.Itoa(rw.ResetPeriod.Code()))

	hasKillMob := false
	for _, req := range rw.Requirements {
		if req.Type == KillMob {
			field("condition_count", req.Value)
			hasKillMob = true
			continue
		}
		field(req.Type, req.Value)
	}
	if !hasKillMob {
		field("condition_count", "0")
	}

	field("condition_level", strconv.Itoa(rw.MinLevel))
	field("can_condition_level", fmt.Sprintf("{%d;%d;0}", rw.MinLevel, rw.MaxLevel))
	field("can_condition_day", "{}")
	field("category", strconv.Itoa(rw.Category))

	tuples := make([]string, len(rw.Items))
	for i, it := range rw.Items {
		tuples[i] = fmt.Sprintf("{%d;%d}", it.ItemID, it.Count)
	}
	field("reward_item", "{"+strings.Join(tuples, ";")+"}")

	if rw.TargetLocScale != nil && len(*rw.TargetLocScale) > 0 {
		field("targetloc_scale", "{"+joinFloats(*rw.TargetLocScale)+"}")
	} else {
		field("targetloc_scale", "{}")
	}
	if len(rw.MobIDs) > 0 {
		field("mob_ids", "{"+joinInts(rw.MobIDs)+"}")
	}
	bw.WriteString(flatEnd + "\n")
}
