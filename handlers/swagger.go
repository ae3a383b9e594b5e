package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>DocSync API — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document describing the HTTP surface. The realtime
// websocket protocol is documented separately; only the upgrade endpoint
// appears here.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "DocSync-Backend", "version": "v1.0.0" },
  "paths": {
    "/auth/register": {
      "post": { "summary": "Create an account", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"username":{"type":"string"},"email":{"type":"string"},"password":{"type":"string"}}}}}}, "responses": { "201": { "description": "tokens returned" }, "409": { "description": "email already registered" } } }
    },
    "/auth/login": {
      "post": { "summary": "Login with email and password", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"email":{"type":"string"},"password":{"type":"string"}}}}}}, "responses": { "200": { "description": "tokens returned" }, "401": { "description": "invalid credentials" } } }
    },
    "/auth/refresh": {
      "post": { "summary": "Refresh access token", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refreshToken":{"type":"string"}}}}}}, "responses": { "200": { "description": "new access token" }, "401": { "description": "invalid refresh" } } }
    },
    "/auth/logout": {
      "post": { "summary": "Logout and invalidate refresh token", "responses": { "200": { "description": "logged out" } } }
    },
    "/auth/forgot-password": {
      "post": { "summary": "Request a password reset token by mail", "responses": { "200": { "description": "always, to avoid address probing" } } }
    },
    "/auth/reset-password": {
      "post": { "summary": "Consume a reset token", "responses": { "200": { "description": "password updated" }, "401": { "description": "token invalid or expired" } } }
    },
    "/api/documents": {
      "get": { "summary": "List documents owned or shared", "responses": { "200": { "description": "document list" } } },
      "post": { "summary": "Create a document (records version 1)", "responses": { "201": { "description": "created" } } }
    },
    "/api/documents/{id}": {
      "get": { "summary": "Get a document", "responses": { "200": { "description": "document" }, "403": { "description": "no access" }, "404": { "description": "not found" } } },
      "patch": { "summary": "Rename a document", "responses": { "200": { "description": "renamed" } } },
      "delete": { "summary": "Delete a document and its versions", "responses": { "200": { "description": "deleted" } } }
    },
    "/api/documents/{id}/collaborators": {
      "post": { "summary": "Grant view or edit access by email", "responses": { "200": { "description": "updated document" } } }
    },
    "/api/documents/{id}/collaborators/{userId}": {
      "delete": { "summary": "Revoke a collaborator grant", "responses": { "200": { "description": "removed" } } }
    },
    "/api/documents/{id}/versions": {
      "get": { "summary": "List version snapshots", "responses": { "200": { "description": "versions, oldest first" } } }
    },
    "/api/documents/{id}/versions/{n}": {
      "get": { "summary": "Get one snapshot", "responses": { "200": { "description": "version" }, "404": { "description": "not found" } } }
    },
    "/api/documents/{id}/versions/{n}/restore": {
      "post": { "summary": "Roll live content back to snapshot n as a new version", "responses": { "200": { "description": "new version" } } }
    },
    "/ws": { "get": { "summary": "Websocket upgrade for the realtime editing channel", "responses": { "101": { "description": "switching protocols" }, "401": { "description": "authentication failed" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
