package v1

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/neverthesameagain/Splitzy-Pay/internal/httputil"
	"github.com/neverthesameagain/Splitzy-Pay/internal/models"
)

// RegisterGroupRoutes registers the routes for groups with
// the RouterGroup that is passed.
func RegisterGroupRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsGroups)
		r.GET("", GetGroups)
		r.POST("", CreateGroup)
	}

	// Group with ID
	{
		r.OPTIONS("/:id", OptionsGroupDetail)
		r.GET("/:id", GetGroup)
		r.GET("/:id/balances", GetGroupBalances)
		r.POST("/:id/members", AddGroupMember)
		r.DELETE("/:id/members/:userID", RemoveGroupMember)
	}
}

type GroupEditable struct {
	Name string `json:"name" example:"Flat 42" default:""`                      // Name of the group
	Note string `json:"note" example:"Rent, groceries and utilities" default:""` // Notes about the group

	// CreatorID is the user creating the group. The creator becomes the
	// group's first member with the admin role, so a group never exists
	// without members.
	CreatorID uuid.UUID `json:"creatorId" example:"d3006b00-5fb6-4d1a-ba32-6153279cb773"`
}

type GroupMemberEditable struct {
	UserID uuid.UUID         `json:"userId" example:"5b8dc6d3-a6b2-4947-9a5e-e6bb4db4a9d5"` // The user to add as a member
	Role   models.MemberRole `json:"role" example:"member" default:"member"`                // Role of the member, admin or member
}

type GroupMember struct {
	UserID uuid.UUID         `json:"userId"`
	Name   string            `json:"name"`
	Role   models.MemberRole `json:"role"`
}

type GroupLinks struct {
	Self     string `json:"self" example:"https://example.com/api/v1/groups/04c478a3-c402-4e08-a643-1cbb7eebaf5c"`              // The group itself
	Members  string `json:"members" example:"https://example.com/api/v1/groups/04c478a3-c402-4e08-a643-1cbb7eebaf5c/members"`   // Membership management
	Balances string `json:"balances" example:"https://example.com/api/v1/groups/04c478a3-c402-4e08-a643-1cbb7eebaf5c/balances"` // The group's pairwise balances
}

// Group is the representation of a Group in API v1.
type Group struct {
	models.DefaultModel
	Name    string        `json:"name"`
	Note    string        `json:"note"`
	Members []GroupMember `json:"members"`
	Links   GroupLinks    `json:"links"`
}

// newGroup returns the API v1 representation of the resource.
func newGroup(c *gin.Context, model models.Group, members []models.GroupMember) Group {
	url := c.GetString(baseURLKey)

	memberData := make([]GroupMember, 0, len(members))
	for _, member := range members {
		memberData = append(memberData, GroupMember{
			UserID: member.UserID,
			Name:   member.User.Name,
			Role:   member.Role,
		})
	}

	return Group{
		DefaultModel: model.DefaultModel,
		Name:         model.Name,
		Note:         model.Note,
		Members:      memberData,
		Links: GroupLinks{
			Self:     fmt.Sprintf("%s/v1/groups/%s", url, model.ID),
			Members:  fmt.Sprintf("%s/v1/groups/%s/members", url, model.ID),
			Balances: fmt.Sprintf("%s/v1/groups/%s/balances", url, model.ID),
		},
	}
}

type GroupResponse struct {
	Error *string `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Data  *Group  `json:"data"`                                                          // The Group data
}

type GroupListResponse struct {
	Error *string `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Data  []Group `json:"data"`                                                          // List of groups
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Groups
// @Success		204
// @Router			/v1/groups [options]
func OptionsGroups(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Groups
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Param			id	path	string	true	"ID formatted as string"
// @Router			/v1/groups/{id} [options]
func OptionsGroupDetail(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	var group models.Group
	err = models.DB.First(&group, "id = ?", uri.ID.UUID).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	httputil.OptionsGet(c)
}

// @Summary		Create group
// @Description	Creates a new group. The creator becomes its first member with the admin role.
// @Tags			Groups
// @Accept			json
// @Produce		json
// @Success		201		{object}	GroupResponse
// @Failure		400		{object}	GroupResponse
// @Failure		404		{object}	GroupResponse
// @Failure		500		{object}	GroupResponse
// @Param			group	body		GroupEditable	true	"Group"
// @Router			/v1/groups [post]
func CreateGroup(c *gin.Context) {
	var editable GroupEditable
	err := httputil.BindData(c, &editable)
	if err != nil {
		e := err.Error()
		c.JSON(http.StatusBadRequest, GroupResponse{Error: &e})
		return
	}

	var creator models.User
	err = models.DB.First(&creator, "id = ?", editable.CreatorID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), GroupResponse{Error: &e})
		return
	}

	group := models.Group{
		Name: editable.Name,
		Note: editable.Note,
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Create(&group).Error
		if err != nil {
			return err
		}

		member := models.GroupMember{
			GroupID: group.ID,
			UserID:  creator.ID,
			Role:    models.RoleAdmin,
		}

		return tx.Create(&member).Error
	})
	if err != nil {
		e := err.Error()
		c.JSON(status(err), GroupResponse{Error: &e})
		return
	}

	members, err := group.Members(models.DB.Preload("User"))
	if err != nil {
		e := err.Error()
		c.JSON(status(err), GroupResponse{Error: &e})
		return
	}

	data := newGroup(c, group, members)
	c.JSON(http.StatusCreated, GroupResponse{Data: &data})
}

// @Summary		Get groups
// @Description	Returns a list of groups
// @Tags			Groups
// @Produce		json
// @Success		200	{object}	GroupListResponse
// @Failure		500	{object}	GroupListResponse
// @Router			/v1/groups [get]
func GetGroups(c *gin.Context) {
	var groups []models.Group
	err := models.DB.Order("created_at ASC").Find(&groups).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), GroupListResponse{Error: &e})
		return
	}

	data := make([]Group, 0, len(groups))
	for _, group := range groups {
		members, err := group.Members(models.DB.Preload("User"))
		if err != nil {
			e := err.Error()
			c.JSON(status(err), GroupListResponse{Error: &e})
			return
		}

		data = append(data, newGroup(c, group, members))
	}

	c.JSON(http.StatusOK, GroupListResponse{Data: data})
}

// @Summary		Get group
// @Description	Returns a specific group with its current members
// @Tags			Groups
// @Produce		json
// @Success		200	{object}	GroupResponse
// @Failure		400	{object}	GroupResponse
// @Failure		404	{object}	GroupResponse
// @Param			id	path	string	true	"ID formatted as string"
// @Router			/v1/groups/{id} [get]
func GetGroup(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), GroupResponse{Error: &e})
		return
	}

	var group models.Group
	err = models.DB.First(&group, "id = ?", uri.ID.UUID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), GroupResponse{Error: &e})
		return
	}

	members, err := group.Members(models.DB.Preload("User"))
	if err != nil {
		e := err.Error()
		c.JSON(status(err), GroupResponse{Error: &e})
		return
	}

	data := newGroup(c, group, members)
	c.JSON(http.StatusOK, GroupResponse{Data: &data})
}

// @Summary		Add group member
// @Description	Adds a user to the group. Membership is additive; adding an existing member fails.
// @Tags			Groups
// @Accept			json
// @Produce		json
// @Success		201		{object}	GroupResponse
// @Failure		400		{object}	GroupResponse
// @Failure		404		{object}	GroupResponse
// @Param			id		path		string				true	"ID formatted as string"
// @Param			member	body		GroupMemberEditable	true	"Member"
// @Router			/v1/groups/{id}/members [post]
func AddGroupMember(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), GroupResponse{Error: &e})
		return
	}

	var editable GroupMemberEditable
	err = httputil.BindData(c, &editable)
	if err != nil {
		e := err.Error()
		c.JSON(http.StatusBadRequest, GroupResponse{Error: &e})
		return
	}

	var group models.Group
	err = models.DB.First(&group, "id = ?", uri.ID.UUID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), GroupResponse{Error: &e})
		return
	}

	var user models.User
	err = models.DB.First(&user, "id = ?", editable.UserID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), GroupResponse{Error: &e})
		return
	}

	member := models.GroupMember{
		GroupID: group.ID,
		UserID:  user.ID,
		Role:    editable.Role,
	}

	err = models.DB.Create(&member).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), GroupResponse{Error: &e})
		return
	}

	members, err := group.Members(models.DB.Preload("User"))
	if err != nil {
		e := err.Error()
		c.JSON(status(err), GroupResponse{Error: &e})
		return
	}

	data := newGroup(c, group, members)
	c.JSON(http.StatusCreated, GroupResponse{Data: &data})
}

// @Summary		Remove group member
// @Description	Removes a member from the group. The membership row is soft-deleted so split lines of past expenses stay resolvable. The last admin cannot be removed.
// @Tags			Groups
// @Produce		json
// @Success		204
// @Failure		400		{object}	httpError
// @Failure		404		{object}	httpError
// @Param			id		path	string	true	"ID formatted as string"
// @Param			userID	path	string	true	"ID of the member's user"
// @Router			/v1/groups/{id}/members/{userID} [delete]
func RemoveGroupMember(c *gin.Context) {
	var uri URIMember
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	var member models.GroupMember
	err = models.DB.
		Where(&models.GroupMember{GroupID: uri.ID.UUID, UserID: uri.UserID.UUID}).
		First(&member).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	if member.Role == models.RoleAdmin {
		var admins int64
		err = models.DB.Model(&models.GroupMember{}).
			Where(&models.GroupMember{GroupID: uri.ID.UUID, Role: models.RoleAdmin}).
			Count(&admins).Error
		if err != nil {
			c.JSON(status(err), httpError{Error: err.Error()})
			return
		}

		if admins == 1 {
			c.JSON(http.StatusBadRequest, httpError{Error: models.ErrLastAdmin.Error()})
			return
		}
	}

	err = models.DB.Delete(&member).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}
