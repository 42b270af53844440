package reward

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Markup element and attribute names.
const (
	markupRoot        = "one_day_rewards"
	markupRecord      = "one_day_reward"
	markupItems       = "reward_items"
	markupItem        = "reward_item"
	markupRequirement = "requirement"
	markupCond        = "cond"
	markupAnd         = "and"
	markupPlayer      = "player"
	markupTarget      = "target"
)

// ParseMarkup reads every one_day_reward element of a markup document,
// at any depth, in document order.
func ParseMarkup(r io.Reader) ([]*Reward, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read markup: %v", ErrIO, err)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: read markup: %v", ErrMalformedRecord, err)
	}
	elems := doc.FindElements("//" + markupRecord)
	out := make([]*Reward, 0, len(elems))
	for i, el := range elems {
		rw, err := parseMarkupRecord(i, el)
		if err != nil {
			return nil, err
		}
		out = append(out, rw)
	}
	return out, nil
}

func parseMarkupRecord(idx int, el *etree.Element) (*Reward, error) {
	fail := func(field, value string, err error) error {
		return &ParseError{Format: FormatMarkup, Record: idx, Field: field, Value: value, Err: err}
	}
	child := func(tag string) (string, error) {
		c := el.SelectElement(tag)
		if c == nil {
			return "", fail(tag, "", ErrMalformedRecord)
		}
		return c.Text(), nil
	}

	idText, err := child("id")
	if err != nil {
		return nil, err
	}
	id, err := strconv.Atoi(strings.TrimSpace(idText))
	if err != nil {
		return nil, fail("id", idText, ErrInvalidInteger)
	}
	rw := New(id)
	if rw.Name, err = child("name"); err != nil {
		return nil, err
	}
	if rw.Description, err = child("description"); err != nil {
		return nil, err
	}
	period, err := child("reset_time")
	if err != nil {
		return nil, err
	}
	rw.ResetPeriod = ResetPeriod(strings.TrimSpace(period))

	for _, it := range el.FindElements(".//" + markupItem) {
		itemID, err := intAttr(it, "id", fail)
		if err != nil {
			return nil, err
		}
		count, err := intAttr(it, "count", fail)
		if err != nil {
			return nil, err
		}
		rw.Items = append(rw.Items, RewardItem{ItemID: itemID, Count: count})
	}

	// Only the first requirement container counts.
	if req := el.FindElement(".//" + markupRequirement); req != nil {
		for _, c := range req.ChildElements() {
			value := strings.TrimSpace(c.Text())
			if value == "" {
				value = c.SelectAttrValue("count", "1")
			}
			rw.Requirements = append(rw.Requirements, Requirement{Type: c.Tag, Value: value})
		}
	}

	if cond := el.FindElement(".//" + markupCond); cond != nil {
		if p := cond.FindElement(".//" + markupPlayer); p != nil {
			if rw.MinLevel, err = intAttrDefault(p, "minLevel", DefaultMinLevel, fail); err != nil {
				return nil, err
			}
			if rw.MaxLevel, err = intAttrDefault(p, "maxLevel", DefaultMaxLevel, fail); err != nil {
				return nil, err
			}
		}
		if t := cond.FindElement(".//" + markupTarget); t != nil {
			if raw := t.SelectAttrValue("mobId", ""); raw != "" {
				ids, err := splitInts(raw)
				if err != nil {
					return nil, fail("mobId", raw, err)
				}
				rw.MobIDs = ids
			}
		}
	}
	return rw, nil
}

type failFunc func(field, value string, err error) error

func intAttr(el *etree.Element, key string, fail failFunc) (int, error) {
	a := el.SelectAttr(key)
	if a == nil {
		return 0, fail(el.Tag+"@"+key, "", ErrMalformedRecord)
	}
	n, err := strconv.Atoi(strings.TrimSpace(a.Value))
	if err != nil {
		return 0, fail(el.Tag+"@"+key, a.Value, ErrInvalidInteger)
	}
	return n, nil
}

func intAttrDefault(el *etree.Element, key string, def int, fail failFunc) (int, error) {
	if el.SelectAttr(key) == nil {
		return def, nil
	}
	return intAttr(el, key, fail)
}

// WriteMarkup renders rewards as a tab-indented markup document.
// Requirement types become element names, so a type that is not a valid
// name fails with ErrMalformedRecord before anything is written.
func WriteMarkup(w io.Writer, rewards []*Reward) error {
	for _, rw := range rewards {
		for _, r := range rw.Requirements {
			if !ValidRequirementType(r.Type) {
				return fmt.Errorf("%w: reward %d: requirement type %q is not an element name",
					ErrMalformedRecord, rw.ID, r.Type)
			}
		}
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement(markupRoot)

	for _, rw := range rewards {
		rec := root.CreateElement(markupRecord)
		rec.CreateElement("id").SetText(strconv.Itoa(rw.ID))
		rec.CreateElement("name").SetText(rw.Name)
		rec.CreateElement("description").SetText(rw.Description)
		rec.CreateElement("reset_time").SetText(string(rw.ResetPeriod))

		items := rec.CreateElement(markupItems)
		for _, it := range rw.Items {
			e := items.CreateElement(markupItem)
			e.CreateAttr("id", strconv.Itoa(it.ItemID))
			e.CreateAttr("count", strconv.Itoa(it.Count))
		}

		if len(rw.Requirements) > 0 {
			req := rec.CreateElement(markupRequirement)
			for _, r := range rw.Requirements {
				req.CreateElement(r.Type).SetText(r.Value)
			}
		}

		and := rec.CreateElement(markupCond).CreateElement(markupAnd)
		player := and.CreateElement(markupPlayer)
		player.CreateAttr("minLevel", strconv.Itoa(rw.MinLevel))
		player.CreateAttr("maxLevel", strconv.Itoa(rw.MaxLevel))
		if len(rw.MobIDs) > 0 {
			and.CreateElement(markupTarget).CreateAttr("mobId", joinInts(rw.MobIDs))
		}
	}

	doc.IndentTabs()
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("%w: write markup: %v", ErrIO, err)
	}
	return nil
}
