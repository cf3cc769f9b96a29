package v1

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neverthesameagain/Splitzy-Pay/internal/httputil"
	"github.com/neverthesameagain/Splitzy-Pay/internal/models"
)

// RegisterUserRoutes registers the routes for users with
// the RouterGroup that is passed.
func RegisterUserRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsUsers)
		r.GET("", GetUsers)
		r.POST("", CreateUser)
	}

	// User with ID
	{
		r.OPTIONS("/:id", OptionsUserDetail)
		r.GET("/:id", GetUser)
		r.GET("/:id/balance", GetUserBalance)
	}
}

type UserEditable struct {
	Name  string `json:"name" example:"Krishanu" default:""`               // Display name of the user
	Email string `json:"email" example:"krishanu@example.com" default:""` // Email address, unique across users
}

func (editable UserEditable) model() models.User {
	return models.User{
		Name:  editable.Name,
		Email: editable.Email,
	}
}

type UserLinks struct {
	Self    string `json:"self" example:"https://example.com/api/v1/users/d3006b00-5fb6-4d1a-ba32-6153279cb773"`            // The user itself
	Balance string `json:"balance" example:"https://example.com/api/v1/users/d3006b00-5fb6-4d1a-ba32-6153279cb773/balance"` // The user's net balance
}

// User is the representation of a User in API v1.
type User struct {
	models.DefaultModel
	UserEditable
	Links UserLinks `json:"links"`
}

// newUser returns the API v1 representation of the resource.
func newUser(c *gin.Context, model models.User) User {
	url := c.GetString(baseURLKey)

	return User{
		DefaultModel: model.DefaultModel,
		UserEditable: UserEditable{
			Name:  model.Name,
			Email: model.Email,
		},
		Links: UserLinks{
			Self:    fmt.Sprintf("%s/v1/users/%s", url, model.ID),
			Balance: fmt.Sprintf("%s/v1/users/%s/balance", url, model.ID),
		},
	}
}

type UserResponse struct {
	Error *string `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Data  *User   `json:"data"`                                                          // The User data
}

type UserListResponse struct {
	Error *string `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Data  []User  `json:"data"`                                                          // List of users
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Users
// @Success		204
// @Router			/v1/users [options]
func OptionsUsers(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Users
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Param			id	path	string	true	"ID formatted as string"
// @Router			/v1/users/{id} [options]
func OptionsUserDetail(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	var user models.User
	err = models.DB.First(&user, "id = ?", uri.ID.UUID).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	httputil.OptionsGet(c)
}

// @Summary		Create user
// @Description	Creates a new user
// @Tags			Users
// @Accept			json
// @Produce		json
// @Success		201		{object}	UserResponse
// @Failure		400		{object}	UserResponse
// @Failure		500		{object}	UserResponse
// @Param			user	body		UserEditable	true	"User"
// @Router			/v1/users [post]
func CreateUser(c *gin.Context) {
	var editable UserEditable
	err := httputil.BindData(c, &editable)
	if err != nil {
		e := err.Error()
		c.JSON(http.StatusBadRequest, UserResponse{Error: &e})
		return
	}

	user := editable.model()
	err = models.DB.Create(&user).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), UserResponse{Error: &e})
		return
	}

	data := newUser(c, user)
	c.JSON(http.StatusCreated, UserResponse{Data: &data})
}

// @Summary		Get users
// @Description	Returns a list of users
// @Tags			Users
// @Produce		json
// @Success		200	{object}	UserListResponse
// @Failure		500	{object}	UserListResponse
// @Router			/v1/users [get]
func GetUsers(c *gin.Context) {
	var users []models.User
	err := models.DB.Order("created_at ASC").Find(&users).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), UserListResponse{Error: &e})
		return
	}

	data := make([]User, 0, len(users))
	for _, user := range users {
		data = append(data, newUser(c, user))
	}

	c.JSON(http.StatusOK, UserListResponse{Data: data})
}

// @Summary		Get user
// @Description	Returns a specific user
// @Tags			Users
// @Produce		json
// @Success		200	{object}	UserResponse
// @Failure		400	{object}	UserResponse
// @Failure		404	{object}	UserResponse
// @Param			id	path	string	true	"ID formatted as string"
// @Router			/v1/users/{id} [get]
func GetUser(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), UserResponse{Error: &e})
		return
	}

	var user models.User
	err = models.DB.First(&user, "id = ?", uri.ID.UUID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), UserResponse{Error: &e})
		return
	}

	data := newUser(c, user)
	c.JSON(http.StatusOK, UserResponse{Data: &data})
}
