package v1

import (
	sp_uuid "github.com/neverthesameagain/Splitzy-Pay/internal/uuid"
)

// baseURLKey is the gin context key the router's URL middleware stores the
// API base URL under. Used to construct resource links.
const baseURLKey = "baseURL"

type URIID struct {
	ID sp_uuid.UUID `uri:"id" binding:"required" format:"UUID"` // ID of the resource
}

type URIMember struct {
	URIID
	UserID sp_uuid.UUID `uri:"userID" binding:"required" format:"UUID"` // ID of the member's user
}
