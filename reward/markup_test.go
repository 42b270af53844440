package reward

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dailyRecord = `<one_day_reward><id>1</id><name>Daily</name><description>d</description><reset_time>DAILY</reset_time><reward_items><reward_item id="57" count="100"/></reward_items></one_day_reward>`

func parseMarkupString(t *testing.T, s string) []*Reward {
	t.Helper()
	out, err := ParseMarkup(strings.NewReader(s))
	require.NoError(t, err)
	return out
}

func TestParseMarkup_BareRecord(t *testing.T) {
	out := parseMarkupString(t, dailyRecord)
	require.Len(t, out, 1)
	rw := out[0]
	assert.Equal(t, 1, rw.ID)
	assert.Equal(t, "Daily", rw.Name)
	assert.Equal(t, "d", rw.Description)
	assert.Equal(t, ResetDaily, rw.ResetPeriod)
	assert.Equal(t, []RewardItem{{ItemID: 57, Count: 100}}, rw.Items)
	assert.Empty(t, rw.Requirements)
}

func TestParseMarkup_DefaultsWithoutCond(t *testing.T) {
	rw := parseMarkupString(t, dailyRecord)[0]
	assert.Equal(t, 0, rw.MinLevel)
	assert.Equal(t, 99, rw.MaxLevel)
	assert.Equal(t, []int{-1}, rw.ClassFilter)
	assert.Equal(t, []int{}, rw.MobIDs)
	assert.Equal(t, 0, rw.Category)
	assert.Nil(t, rw.TargetLocScale)
}

func TestParseMarkup_WrappedRecordsInOrder(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<one_day_rewards>
	<one_day_reward><id>7</id><name>B</name><description/><reset_time>WEEKLY</reset_time></one_day_reward>
	<one_day_reward><id>3</id><name>A</name><description>x</description><reset_time>SINGLE</reset_time></one_day_reward>
</one_day_rewards>`
	out := parseMarkupString(t, doc)
	require.Len(t, out, 2)
	assert.Equal(t, 7, out[0].ID)
	assert.Equal(t, "", out[0].Description)
	assert.Equal(t, ResetWeekly, out[0].ResetPeriod)
	assert.Equal(t, 3, out[1].ID)
}

func TestParseMarkup_Requirements(t *testing.T) {
	doc := `<one_day_rewards><one_day_reward>
		<id>2</id><name>n</name><description>d</description><reset_time>DAILY</reset_time>
		<requirement>
			<kill_mob>5</kill_mob>
			<login count="3"/>
			<quest_completed/>
		</requirement>
		<requirement><fishing>9</fishing></requirement>
	</one_day_reward></one_day_rewards>`
	rw := parseMarkupString(t, doc)[0]
	assert.Equal(t, []Requirement{
		{Type: "kill_mob", Value: "5"},
		{Type: "login", Value: "3"},
		{Type: "quest_completed", Value: "1"},
	}, rw.Requirements)
}

func TestParseMarkup_Conditions(t *testing.T) {
	doc := `<one_day_reward><id>4</id><name>n</name><description>d</description><reset_time>DAILY</reset_time>
		<cond><and><player minLevel="20" maxLevel="40"/><target mobId="100; 200;;300 "/></and></cond>
	</one_day_reward>`
	rw := parseMarkupString(t, doc)[0]
	assert.Equal(t, 20, rw.MinLevel)
	assert.Equal(t, 40, rw.MaxLevel)
	assert.Equal(t, []int{100, 200, 300}, rw.MobIDs)
	assert.Equal(t, []int{-1}, rw.ClassFilter)
}

func TestParseMarkup_PlayerWithoutAttributes(t *testing.T) {
	doc := `<one_day_reward><id>4</id><name>n</name><description>d</description><reset_time>DAILY</reset_time>
		<cond><player maxLevel="10"/></cond></one_day_reward>`
	rw := parseMarkupString(t, doc)[0]
	assert.Equal(t, 0, rw.MinLevel)
	assert.Equal(t, 10, rw.MaxLevel)
}

func TestParseMarkup_OutOfOrderLevelsPreserved(t *testing.T) {
	doc := `<one_day_reward><id>4</id><name>n</name><description>d</description><reset_time>DAILY</reset_time>
		<cond><and><player minLevel="80" maxLevel="10"/></and></cond></one_day_reward>`
	rw := parseMarkupString(t, doc)[0]
	assert.Equal(t, 80, rw.MinLevel)
	assert.Equal(t, 10, rw.MaxLevel)
}

func TestParseMarkup_Errors(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		want  error
		field string
	}{
		{
			name:  "missing reset_time",
			doc:   `<one_day_reward><id>1</id><name>n</name><description>d</description></one_day_reward>`,
			want:  ErrMalformedRecord,
			field: "reset_time",
		},
		{
			name:  "missing name",
			doc:   `<one_day_reward><id>1</id><description>d</description><reset_time>DAILY</reset_time></one_day_reward>`,
			want:  ErrMalformedRecord,
			field: "name",
		},
		{
			name:  "bad id",
			doc:   `<one_day_reward><id>abc</id><name>n</name><description>d</description><reset_time>DAILY</reset_time></one_day_reward>`,
			want:  ErrInvalidInteger,
			field: "id",
		},
		{
			name:  "bad item count",
			doc:   `<one_day_reward><id>1</id><name>n</name><description>d</description><reset_time>DAILY</reset_time><reward_items><reward_item id="5" count="x"/></reward_items></one_day_reward>`,
			want:  ErrInvalidInteger,
			field: "reward_item@count",
		},
		{
			name:  "item without id",
			doc:   `<one_day_reward><id>1</id><name>n</name><description>d</description><reset_time>DAILY</reset_time><reward_items><reward_item count="1"/></reward_items></one_day_reward>`,
			want:  ErrMalformedRecord,
			field: "reward_item@id",
		},
		{
			name:  "bad level",
			doc:   `<one_day_reward><id>1</id><name>n</name><description>d</description><reset_time>DAILY</reset_time><cond><player minLevel="low"/></cond></one_day_reward>`,
			want:  ErrInvalidInteger,
			field: "player@minLevel",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMarkup(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.field, pe.Field)
			assert.Equal(t, FormatMarkup, pe.Format)
		})
	}
}

func TestParseMarkup_NotXML(t *testing.T) {
	_, err := ParseMarkup(strings.NewReader("<<one_day_reward>"))
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestParseMarkup_ReadFailureIsIO(t *testing.T) {
	_, err := ParseMarkup(iotest.ErrReader(errors.New("disk gone")))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIO)
	assert.NotErrorIs(t, err, ErrMalformedRecord)
	assert.Equal(t, "io", Kind(err))
}

func TestWriteMarkup_RejectsBadRequirementType(t *testing.T) {
	for _, typ := range []string{"kill mob<", "", "1st", "a>b"} {
		rw := New(3)
		rw.Name = "n"
		rw.Requirements = []Requirement{{Type: typ, Value: "1"}}
		var buf bytes.Buffer
		err := WriteMarkup(&buf, []*Reward{rw})
		assert.ErrorIs(t, err, ErrMalformedRecord, typ)
		assert.Zero(t, buf.Len(), typ)
	}
}

func TestWriteMarkup_Layout(t *testing.T) {
	rw := New(1)
	rw.Name = "Daily"
	rw.Description = "d"
	rw.Items = []RewardItem{{ItemID: 57, Count: 100}}
	rw.MobIDs = []int{10, 20}

	var buf bytes.Buffer
	require.NoError(t, WriteMarkup(&buf, []*Reward{rw}))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, "\n<one_day_rewards>\n\t<one_day_reward>\n\t\t<id>1</id>")
	assert.Contains(t, out, "<reset_time>DAILY</reset_time>")
	assert.Contains(t, out, `id="57" count="100"`)
	assert.Contains(t, out, `minLevel="0" maxLevel="99"`)
	assert.Contains(t, out, `mobId="10;20"`)
	assert.NotContains(t, out, "<requirement>")
	assert.NotContains(t, out, "category")
}

func TestWriteMarkup_OmitsTargetWithoutMobs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMarkup(&buf, []*Reward{New(9)}))
	assert.NotContains(t, buf.String(), "<target")
	assert.Contains(t, buf.String(), "<cond>")
}

func TestMarkup_RoundTrip(t *testing.T) {
	a := New(11)
	a.Name = "Hunter & Gatherer"
	a.Description = "Kill <many> things"
	a.ResetPeriod = ResetMonthly
	a.Items = []RewardItem{{ItemID: 3, Count: 1}, {ItemID: 1, Count: 2}}
	a.Requirements = []Requirement{{Type: "kill_mob", Value: "50"}, {Type: "login", Value: "1"}}
	a.MinLevel = 40
	a.MaxLevel = 30
	a.MobIDs = []int{20001, 20002}

	b := New(2)
	b.Name = "Empty"
	b.ResetPeriod = ResetPeriod("HOURLY")

	var buf bytes.Buffer
	require.NoError(t, WriteMarkup(&buf, []*Reward{a, b}))
	back, err := ParseMarkup(&buf)
	require.NoError(t, err)
	require.Len(t, back, 2)
	assert.Equal(t, a, back[0])
	assert.Equal(t, b, back[1])
}
