package handlers

import (
	"github.com/gin-gonic/gin"
)

// Error codes carried in the JSON error envelope
const (
	CodeDuplicateUsername  = "DUPLICATE_USERNAME"
	CodeMissingField       = "MISSING_FIELD"
	CodeInvalidForm        = "INVALID_FORM"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeFileNotFound       = "FILE_NOT_FOUND"
	CodeReadFailed         = "READ_FAILED"
	CodeBodyTooLarge       = "BODY_TOO_LARGE"
	CodeNotFound           = "NOT_FOUND"
	CodeInternal           = "INTERNAL_ERROR"
)

// User-facing messages
const (
	MsgDuplicateUsername  = "Username already exists! Please choose another."
	MsgInvalidCredentials = "Invalid username or password"
	MsgUserNotFound       = "User not found"
	MsgFileNotFound       = "File not found"
)

func errorBody(code, message string) gin.H {
	return gin.H{
		"code":    code,
		"message": message,
	}
}

func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   errorBody(code, message),
	})
}

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// formField describes one input of a form descriptor
type formField struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// formDescriptor stands in for a rendered HTML form
type formDescriptor struct {
	Action            string      `json:"action"`
	Method            string      `json:"method"`
	Enctype           string      `json:"enctype,omitempty"`
	Fields            []formField `json:"fields"`
	AllowedExtensions []string    `json:"allowed_extensions,omitempty"`
}

var loginForm = formDescriptor{
	Action: "/login",
	Method: "POST",
	Fields: []formField{
		{Name: "username", Type: "text", Required: true},
		{Name: "password", Type: "password", Required: true},
	},
}

func registrationForm(allowed []string) formDescriptor {
	return formDescriptor{
		Action:  "/register",
		Method:  "POST",
		Enctype: "multipart/form-data",
		Fields: []formField{
			{Name: "username", Type: "text", Required: true},
			{Name: "password", Type: "password", Required: true},
			{Name: "firstname", Type: "text", Required: true},
			{Name: "lastname", Type: "text", Required: true},
			{Name: "email", Type: "email", Required: true},
			{Name: "address", Type: "text"},
			{Name: "file", Type: "file"},
		},
		AllowedExtensions: allowed,
	}
}
