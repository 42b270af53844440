package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/unrealsaint/lucera2missionparser/reward"
	"gorm.io/datatypes"
)

// RewardSnapshot is one persisted catalog entry. Position keeps the
// catalog's iteration order across save and restore.
type RewardSnapshot struct {
	ID             int64          `gorm:"primaryKey;autoIncrement" json:"-"`
	RewardID       int            `gorm:"uniqueIndex:idx_snapshot_reward;not null" json:"reward_id"`
	Position       int            `gorm:"index:idx_snapshot_position;not null" json:"position"`
	Name           string         `gorm:"type:text" json:"name"`
	Description    string         `gorm:"type:text" json:"description"`
	ResetPeriod    string         `gorm:"size:32" json:"reset_period"`
	Items          datatypes.JSON `json:"items"`        // [{"item_id":57,"count":100}]
	Requirements   datatypes.JSON `json:"requirements"` // [{"type":"kill_mob","value":"5"}]
	ClassFilter    datatypes.JSON `json:"class_filter"`
	MinLevel       int            `json:"min_level"`
	MaxLevel       int            `json:"max_level"`
	Category       int            `json:"category"`
	TargetLocScale datatypes.JSON `json:"targetloc_scale"` // NULL when absent
	MobIDs         datatypes.JSON `json:"mob_ids"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (RewardSnapshot) TableName() string { return "reward_snapshots" }

// NewRewardSnapshot flattens rw for storage at the given position.
func NewRewardSnapshot(position int, rw *reward.Reward) (*RewardSnapshot, error) {
	s := &RewardSnapshot{
		RewardID:    rw.ID,
		Position:    position,
		Name:        rw.Name,
		Description: rw.Description,
		ResetPeriod: string(rw.ResetPeriod),
		MinLevel:    rw.MinLevel,
		MaxLevel:    rw.MaxLevel,
		Category:    rw.Category,
	}
	var err error
	if s.Items, err = marshalJSON(rw.Items); err != nil {
		return nil, err
	}
	if s.Requirements, err = marshalJSON(rw.Requirements); err != nil {
		return nil, err
	}
	if s.ClassFilter, err = marshalJSON(rw.ClassFilter); err != nil {
		return nil, err
	}
	if s.MobIDs, err = marshalJSON(rw.MobIDs); err != nil {
		return nil, err
	}
	if rw.TargetLocScale != nil {
		if s.TargetLocScale, err = marshalJSON(*rw.TargetLocScale); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Reward rebuilds the domain value.
func (s *RewardSnapshot) Reward() (*reward.Reward, error) {
	rw := reward.New(s.RewardID)
	rw.Name = s.Name
	rw.Description = s.Description
	rw.ResetPeriod = reward.ResetPeriod(s.ResetPeriod)
	rw.MinLevel = s.MinLevel
	rw.MaxLevel = s.MaxLevel
	rw.Category = s.Category

	if err := unmarshalJSON(s.Items, &rw.Items); err != nil {
		return nil, fmt.Errorf("model: reward %d items: %w", s.RewardID, err)
	}
	if err := unmarshalJSON(s.Requirements, &rw.Requirements); err != nil {
		return nil, fmt.Errorf("model: reward %d requirements: %w", s.RewardID, err)
	}
	if err := unmarshalJSON(s.ClassFilter, &rw.ClassFilter); err != nil {
		return nil, fmt.Errorf("model: reward %d class_filter: %w", s.RewardID, err)
	}
	if err := unmarshalJSON(s.MobIDs, &rw.MobIDs); err != nil {
		return nil, fmt.Errorf("model: reward %d mob_ids: %w", s.RewardID, err)
	}
	if len(s.TargetLocScale) > 0 {
		scale := []float64{}
		if err := json.Unmarshal(s.TargetLocScale, &scale); err != nil {
			return nil, fmt.Errorf("model: reward %d targetloc_scale: %w", s.RewardID, err)
		}
		rw.TargetLocScale = &scale
	}
	rw.Normalize()
	return rw, nil
}

func marshalJSON(v interface{}) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func unmarshalJSON[T any](data datatypes.JSON, out *T) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}
