// Package docs holds the OpenAPI description served at /swagger.
// Regenerate with: swag init -g cmd/api/main.go -o internal/docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/register": {"post": {"tags": ["auth"], "summary": "Register a new user", "responses": {"201": {"description": "User registered"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Log in", "responses": {"200": {"description": "Tokens issued"}}}},
        "/auth/refresh": {"post": {"tags": ["auth"], "summary": "Exchange a refresh token", "responses": {"200": {"description": "Tokens issued"}}}},
        "/profile": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Get profile", "responses": {"200": {"description": "Profile"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Update profile", "responses": {"200": {"description": "Profile"}}}
        },
        "/families": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["families"], "summary": "Get the caller's family", "responses": {"200": {"description": "Family"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["families"], "summary": "Create a family", "responses": {"201": {"description": "Family created"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["families"], "summary": "Update the family", "responses": {"200": {"description": "Family"}}}
        },
        "/families/join": {"post": {"security": [{"BearerAuth": []}], "tags": ["families"], "summary": "Join by invite code", "responses": {"200": {"description": "Family"}}}},
        "/families/members": {"get": {"security": [{"BearerAuth": []}], "tags": ["families"], "summary": "List members", "responses": {"200": {"description": "Members"}}}},
        "/families/leave": {"post": {"security": [{"BearerAuth": []}], "tags": ["families"], "summary": "Leave the family", "responses": {"200": {"description": "Left family"}}}},
        "/categories": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["categories"], "summary": "List categories", "responses": {"200": {"description": "Categories"}}},
            "post": {"security": [{"BearerAuth": [], "ApiKeyAuth": []}], "tags": ["categories"], "summary": "Create a category", "responses": {"201": {"description": "Category created"}}}
        },
        "/categories/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["categories"], "summary": "Get a category", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Category"}}},
            "delete": {"security": [{"BearerAuth": [], "ApiKeyAuth": []}], "tags": ["categories"], "summary": "Delete a category", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Category deleted"}}}
        },
        "/transactions": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["transactions"], "summary": "List transactions", "responses": {"200": {"description": "Page of transactions"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["transactions"], "summary": "Create a transaction", "responses": {"201": {"description": "Transaction created"}}}
        },
        "/transactions/recent": {"get": {"security": [{"BearerAuth": []}], "tags": ["transactions"], "summary": "Recent transactions", "responses": {"200": {"description": "Transactions"}}}},
        "/transactions/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["transactions"], "summary": "Get a transaction", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Transaction"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["transactions"], "summary": "Update a transaction", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Transaction updated"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["transactions"], "summary": "Delete a transaction", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Transaction deleted"}}}
        },
        "/stats/dashboard": {"get": {"security": [{"BearerAuth": []}], "tags": ["stats"], "summary": "Dashboard", "responses": {"200": {"description": "Dashboard"}}}},
        "/stats/report": {"get": {"security": [{"BearerAuth": []}], "tags": ["stats"], "summary": "Spending report", "responses": {"200": {"description": "Report"}}}},
        "/stats/report.pdf": {"get": {"security": [{"BearerAuth": []}], "tags": ["stats"], "produces": ["application/pdf"], "summary": "Download spending report", "responses": {"200": {"description": "PDF report"}}}},
        "/receipts/scan": {"post": {"security": [{"BearerAuth": []}], "tags": ["receipts"], "consumes": ["multipart/form-data"], "summary": "Scan a receipt", "responses": {"200": {"description": "Proposal"}}}}
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "type": "apiKey",
            "name": "X-API-Key",
            "in": "header"
        },
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Dompet API",
	Description:      "Dompet records spending from receipts and payment proofs, shares it within a family and reports where the money went.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
