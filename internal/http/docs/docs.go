// Package docs holds the OpenAPI (Swagger 2.0) document of the admin API,
// served by gin-swagger under /docs. Regenerate with
// `swag init -g internal/http/router.go -o internal/http/docs` after changing
// handler annotations.
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
        "/modmail": {
            "get": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "description": "Returns a page of threads in one state, oldest first.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Modmail"
                ],
                "summary": "List modmail threads",
                "operationId": "listModmail",
                "parameters": [
                    {
                        "type": "string",
                        "default": "open",
                        "description": "open, in_progress or closed",
                        "name": "status",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "default": 1,
                        "description": "1-based page",
                        "name": "page",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "default": 20,
                        "description": "Items per page (max 100)",
                        "name": "page_size",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.ListModmailResponse"
                        }
                    },
                    "400": {
                        "description": "Unknown status",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "503": {
                        "description": "Storage unavailable",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/modmail/{id}": {
            "get": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Modmail"
                ],
                "summary": "Get a modmail thread",
                "operationId": "getModmail",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Opening message ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Modmail"
                        }
                    },
                    "404": {
                        "description": "Thread not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/modmail/{id}/status": {
            "put": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "consumes": [
                    "application/json"
                ],
                "tags": [
                    "Modmail"
                ],
                "summary": "Change the state of a modmail thread",
                "operationId": "updateModmailStatus",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Opening message ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "New status",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handlers.StatusRequest"
                        }
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "400": {
                        "description": "Invalid payload or status",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Thread not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/suggestions": {
            "get": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "description": "Returns a page of suggestions in one review state, oldest first.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Suggestions"
                ],
                "summary": "List suggestions",
                "operationId": "listSuggestions",
                "parameters": [
                    {
                        "type": "string",
                        "default": "undecided",
                        "description": "undecided, approved, denied, considered or implemented",
                        "name": "status",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "default": 1,
                        "description": "1-based page",
                        "name": "page",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "default": 20,
                        "description": "Items per page (max 100)",
                        "name": "page_size",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.ListSuggestionsResponse"
                        }
                    },
                    "400": {
                        "description": "Unknown status",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/suggestions/{id}": {
            "get": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Suggestions"
                ],
                "summary": "Get a suggestion",
                "operationId": "getSuggestion",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Suggestion ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Suggestion"
                        }
                    },
                    "400": {
                        "description": "Malformed ID",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Suggestion not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/suggestions/{id}/status": {
            "put": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Suggestions"
                ],
                "summary": "Record a review decision",
                "operationId": "updateSuggestionStatus",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Suggestion ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "New status",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handlers.StatusRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.SuggestionStatusResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Suggestion not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/members/{id}/warnings": {
            "get": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Members"
                ],
                "summary": "Warnings of a member",
                "parameters": [
                    {
                        "type": "string",
                        "description": "User ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.WarningsResponse"
                        }
                    }
                }
            }
        },
        "/warnings/{id}": {
            "delete": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "tags": [
                    "Members"
                ],
                "summary": "Remove one warning",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Warning ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "404": {
                        "description": "Warning not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/members/{id}/names": {
            "get": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Members"
                ],
                "summary": "Name history of a member",
                "parameters": [
                    {
                        "type": "string",
                        "description": "User ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.NamesResponse"
                        }
                    }
                }
            }
        },
        "/members/{id}/group-exchanges": {
            "get": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Members"
                ],
                "summary": "Open course group exchanges of a member",
                "parameters": [
                    {
                        "type": "string",
                        "description": "User ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.ExchangesResponse"
                        }
                    }
                }
            }
        },
        "/members/{id}/reminders": {
            "get": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Members"
                ],
                "summary": "Reminders a member subscribed to",
                "parameters": [
                    {
                        "type": "string",
                        "description": "User ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.RemindersResponse"
                        }
                    }
                }
            }
        },
        "/messages/{id}/reaction-roles": {
            "get": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Roles"
                ],
                "summary": "Reaction roles of a message",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Message ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.ReactionRolesResponse"
                        }
                    }
                }
            }
        },
        "/reminders/due": {
            "get": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Reminders"
                ],
                "summary": "Due reminders",
                "parameters": [
                    {
                        "type": "integer",
                        "default": 50,
                        "description": "Maximum jobs (max 500)",
                        "name": "limit",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.RemindersResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "domain.Modmail": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "author": {
                    "type": "string"
                },
                "status_id": {
                    "type": "integer",
                    "description": "1 open, 2 in progress, 3 closed"
                },
                "timestamp": {
                    "type": "string",
                    "example": "2024-07-01T10:00:00Z"
                }
            }
        },
        "domain.Suggestion": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "integer"
                },
                "message_id": {
                    "type": "string"
                },
                "author_id": {
                    "type": "string"
                },
                "status_id": {
                    "type": "integer",
                    "description": "0 undecided, 1 approved, 2 denied, 3 considered, 4 implemented"
                },
                "timestamp": {
                    "type": "string",
                    "example": "2024-07-01T10:00:00Z"
                }
            }
        },
        "domain.ReactionRole": {
            "type": "object",
            "properties": {
                "message_id": {
                    "type": "string"
                },
                "emoji": {
                    "type": "string"
                },
                "role_id": {
                    "type": "string"
                }
            }
        },
        "domain.MemberWarning": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "integer"
                },
                "user_id": {
                    "type": "string"
                },
                "timestamp": {
                    "type": "string",
                    "example": "2024-07-01T10:00:00Z"
                },
                "reason": {
                    "type": "string"
                }
            }
        },
        "domain.MemberNameHistory": {
            "type": "object",
            "properties": {
                "user_id": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "timestamp": {
                    "type": "string",
                    "example": "2024-07-01T10:00:00Z"
                }
            }
        },
        "domain.GroupOffer": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "integer"
                },
                "user_id": {
                    "type": "string"
                },
                "course": {
                    "type": "string"
                },
                "group_nr": {
                    "type": "integer"
                },
                "message_id": {
                    "type": "string"
                }
            }
        },
        "domain.RemindmeJob": {
            "type": "object",
            "properties": {
                "job_id": {
                    "type": "string"
                },
                "timestamp": {
                    "type": "string",
                    "example": "2024-07-01T10:00:00Z"
                },
                "message": {
                    "type": "string"
                },
                "bot_msg_id": {
                    "type": "string"
                }
            }
        },
        "services.Exchange": {
            "type": "object",
            "properties": {
                "offer": {
                    "$ref": "#/definitions/domain.GroupOffer"
                },
                "requested": {
                    "type": "array",
                    "items": {
                        "type": "integer"
                    }
                }
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "request_id": {
                    "type": "string"
                },
                "code": {
                    "type": "string",
                    "example": "not_found"
                },
                "message": {
                    "type": "string"
                }
            }
        },
        "handlers.StatusRequest": {
            "type": "object",
            "required": [
                "status"
            ],
            "properties": {
                "status": {
                    "type": "string",
                    "example": "closed"
                }
            }
        },
        "handlers.Pagination": {
            "type": "object",
            "properties": {
                "page": {
                    "type": "integer"
                },
                "page_size": {
                    "type": "integer"
                },
                "total": {
                    "type": "integer"
                },
                "total_pages": {
                    "type": "integer"
                },
                "has_next": {
                    "type": "boolean"
                }
            }
        },
        "handlers.ListModmailResponse": {
            "type": "object",
            "properties": {
                "status": {
                    "type": "string"
                },
                "modmail": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.Modmail"
                    }
                },
                "pagination": {
                    "$ref": "#/definitions/handlers.Pagination"
                }
            }
        },
        "handlers.ListSuggestionsResponse": {
            "type": "object",
            "properties": {
                "status": {
                    "type": "string"
                },
                "suggestions": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.Suggestion"
                    }
                },
                "pagination": {
                    "$ref": "#/definitions/handlers.Pagination"
                }
            }
        },
        "handlers.SuggestionStatusResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "integer"
                },
                "status": {
                    "type": "string"
                },
                "changed": {
                    "type": "boolean"
                }
            }
        },
        "handlers.WarningsResponse": {
            "type": "object",
            "properties": {
                "user_id": {
                    "type": "string"
                },
                "warnings": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.MemberWarning"
                    }
                }
            }
        },
        "handlers.NamesResponse": {
            "type": "object",
            "properties": {
                "user_id": {
                    "type": "string"
                },
                "names": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.MemberNameHistory"
                    }
                }
            }
        },
        "handlers.ExchangesResponse": {
            "type": "object",
            "properties": {
                "user_id": {
                    "type": "string"
                },
                "exchanges": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/services.Exchange"
                    }
                }
            }
        },
        "handlers.RemindersResponse": {
            "type": "object",
            "properties": {
                "reminders": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.RemindmeJob"
                    }
                }
            }
        },
        "handlers.ReactionRolesResponse": {
            "type": "object",
            "properties": {
                "message_id": {
                    "type": "string"
                },
                "exclusive": {
                    "type": "boolean"
                },
                "roles": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.ReactionRole"
                    }
                }
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "type": "apiKey",
            "name": "X-API-Key",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Community bot store admin API",
	Description:      "Read-mostly administration of modmail, suggestions, moderation records, group exchanges, reaction roles and reminders.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
