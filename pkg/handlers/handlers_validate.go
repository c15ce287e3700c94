package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cuportal/smallgroups-api/pkg/grouping"
	"github.com/cuportal/smallgroups-api/pkg/models"
	"github.com/cuportal/smallgroups-api/pkg/roster"
)

// ValidateInput checks a partition request without running it
func (h *Handler) ValidateInput(c *gin.Context) {
	var input models.PartitionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	regs := make([]models.Registrant, len(input.Registrants))
	residences := make(map[string]bool)
	pastors := 0
	for i, r := range input.Registrants {
		regs[i] = roster.Normalize(r)
		residences[regs[i].Residence] = true
		if regs[i].IsPastor {
			pastors++
		}
	}

	problems := roster.Validate(regs)
	size := h.groupSize(input.TargetGroupSize)
	if size <= 0 {
		problems = append(problems, grouping.ErrInvalidGroupSize.Error())
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":    len(problems) == 0,
		"problems": problems,
		"stats": gin.H{
			"registrant_count":  len(regs),
			"pastor_count":      pastors,
			"residence_count":   len(residences),
			"target_group_size": size,
			"expected_groups":   grouping.GroupCount(len(regs), size),
		},
	})
}
