package rest

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/unrealsaint/lucera2missionparser/editor"
	"github.com/unrealsaint/lucera2missionparser/reward"
)

// RewardHandler serves reward CRUD.
type RewardHandler struct {
	svc      *editor.Service
	validate *RewardValidator
}

// NewRewardHandler creates a RewardHandler.
func NewRewardHandler(svc *editor.Service, v *RewardValidator) *RewardHandler {
	return &RewardHandler{svc: svc, validate: v}
}

type rewardItemRequest struct {
	ItemID int `json:"item_id" validate:"gte=0"`
	Count  int `json:"count" validate:"gte=0"`
}

type requirementRequest struct {
	Type  string `json:"type" validate:"required,requirement_type"`
	Value string `json:"value" validate:"single_line"`
}

// rewardRequest is the editable form of a reward. Omitted collections and
// level bounds take the reward defaults.
type rewardRequest struct {
	ID             *int                 `json:"id" validate:"required,gte=0"`
	Name           string               `json:"name" validate:"single_line"`
	Description    string               `json:"description" validate:"single_line"`
	ResetPeriod    string               `json:"reset_period" validate:"required,single_line"`
	Items          []rewardItemRequest  `json:"items" validate:"dive"`
	Requirements   []requirementRequest `json:"requirements" validate:"dive"`
	ClassFilter    []int                `json:"class_filter"`
	MinLevel       *int                 `json:"min_level" validate:"omitempty,gte=0"`
	MaxLevel       *int                 `json:"max_level" validate:"omitempty,gte=0"`
	Category       int                  `json:"category" validate:"gte=0"`
	TargetLocScale *[]float64           `json:"targetloc_scale"`
	MobIDs         []int                `json:"mob_ids" validate:"dive,gte=0"`
}

func (r *rewardRequest) toReward() (*reward.Reward, error) {
	rw := reward.New(*r.ID)
	rw.Name = r.Name
	rw.Description = r.Description
	rw.ResetPeriod = reward.ResetPeriod(r.ResetPeriod)
	for _, it := range r.Items {
		rw.Items = append(rw.Items, reward.RewardItem{ItemID: it.ItemID, Count: it.Count})
	}
	seen := make(map[string]bool, len(r.Requirements))
	for _, req := range r.Requirements {
		if seen[req.Type] {
			return nil, fmt.Errorf("requirement %q listed twice", req.Type)
		}
		seen[req.Type] = true
		rw.Requirements = append(rw.Requirements, reward.Requirement{Type: req.Type, Value: req.Value})
	}
	if len(r.ClassFilter) > 0 {
		rw.ClassFilter = append([]int{}, r.ClassFilter...)
	}
	if r.MinLevel != nil {
		rw.MinLevel = *r.MinLevel
	}
	if r.MaxLevel != nil {
		rw.MaxLevel = *r.MaxLevel
	}
	if rw.MinLevel > rw.MaxLevel {
		return nil, fmt.Errorf("min_level %d exceeds max_level %d", rw.MinLevel, rw.MaxLevel)
	}
	rw.Category = r.Category
	if r.TargetLocScale != nil {
		rw.TargetLocScale = reward.ScaleList(*r.TargetLocScale...)
	}
	if r.MobIDs != nil {
		rw.MobIDs = append([]int{}, r.MobIDs...)
	}
	return rw, nil
}

func (h *RewardHandler) bind(c *gin.Context) (*reward.Reward, bool) {
	var req rewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	if err := h.validate.Validate(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	rw, err := req.toReward()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return rw, true
}

func paramID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// List handles GET /api/rewards, ordered by id.
func (h *RewardHandler) List(c *gin.Context) {
	rewards := h.svc.List()
	c.JSON(http.StatusOK, gin.H{
		"rewards":  rewards,
		"count":    len(rewards),
		"revision": h.svc.Revision(),
	})
}

// Get handles GET /api/rewards/:id.
func (h *RewardHandler) Get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	rw, err := h.svc.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rw)
}

// Create handles POST /api/rewards. An existing id is overwritten in place.
func (h *RewardHandler) Create(c *gin.Context) {
	rw, ok := h.bind(c)
	if !ok {
		return
	}
	created, err := h.svc.Upsert(c.Request.Context(), rw)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, rw)
}

// Update handles PUT /api/rewards/:id. A body id that differs from the
// path id renames the reward: the old id is gone afterwards and the reward
// moves to the end of the catalog. POST a copy to keep both.
func (h *RewardHandler) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	rw, ok := h.bind(c)
	if !ok {
		return
	}
	if err := h.svc.Update(c.Request.Context(), id, rw); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rw)
}

// Delete handles DELETE /api/rewards/:id.
func (h *RewardHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if len(h.svc.Delete(c.Request.Context(), id)) == 0 {
		respondError(c, fmt.Errorf("%w: %d", editor.ErrNotFound, id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": []int{id}})
}

type bulkDeleteRequest struct {
	IDs []int `json:"ids" binding:"required,min=1"`
}

// BulkDelete handles POST /api/rewards/delete.
func (h *RewardHandler) BulkDelete(c *gin.Context) {
	var req bulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	deleted := h.svc.Delete(c.Request.Context(), req.IDs...)
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
