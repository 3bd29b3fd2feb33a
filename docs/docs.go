// Package docs registers the OpenAPI description served at /swagger.json.
// Regenerate the template with `swag init` after changing handler annotations.
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
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/api/v1/auth/refresh": {
            "post": {"tags": ["Authentication"], "summary": "Refresh Tokens", "responses": {"200": {"description": "Tokens issued"}, "401": {"description": "Invalid refresh token"}}}
        },
        "/api/v1/tracking-links": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Tracking Links"], "summary": "List Tracking Links", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["Tracking Links"], "summary": "Create Tracking Link", "responses": {"201": {"description": "Link created"}, "403": {"description": "Forbidden"}, "409": {"description": "Ref code space exhausted"}}}
        },
        "/api/v1/tracking-links/{id}": {
            "delete": {"security": [{"BearerAuth": []}], "tags": ["Tracking Links"], "summary": "Delete Tracking Link", "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}
        },
        "/api/v1/tracking-links/{ref_code}/click": {
            "post": {"tags": ["Tracking Links"], "summary": "Record Tracking Link Click", "responses": {"200": {"description": "OK"}, "404": {"description": "Unknown ref code"}}}
        },
        "/api/v1/inquiries/public": {
            "post": {"tags": ["Inquiries"], "summary": "Submit Inquiry", "responses": {"201": {"description": "Inquiry received"}, "400": {"description": "Validation error or inactive listing"}}}
        },
        "/api/v1/inquiries": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Inquiries"], "summary": "List Inquiries", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/inquiries/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Inquiries"], "summary": "Get Inquiry", "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}
        },
        "/api/v1/inquiries/{id}/stage": {
            "patch": {"security": [{"BearerAuth": []}], "tags": ["Inquiries"], "summary": "Change Inquiry Stage", "responses": {"200": {"description": "OK"}, "409": {"description": "Concurrent update"}}}
        },
        "/api/v1/commissions": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Commissions"], "summary": "List Commissions", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/commissions/{id}/status": {
            "patch": {"security": [{"BearerAuth": []}], "tags": ["Commissions"], "summary": "Update Commission Status", "responses": {"200": {"description": "OK"}, "400": {"description": "Transition not allowed"}}}
        },
        "/api/v1/admin/commissions/export": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Admin Commissions"], "summary": "Admin Export Commissions", "responses": {"200": {"description": "XLSX file"}}}
        },
        "/api/v1/admin/settings": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Admin Settings"], "summary": "Admin Get Settings", "responses": {"200": {"description": "OK"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["Admin Settings"], "summary": "Admin Update Settings", "responses": {"200": {"description": "OK"}, "400": {"description": "Validation error"}}}
        },
        "/health": {
            "get": {"tags": ["Health"], "summary": "Health Check", "responses": {"200": {"description": "Service is healthy"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"https"},
	Title:            "Maskan API",
	Description:      "Referral attribution and commission settlement for property listings.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
