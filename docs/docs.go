// Package docs holds the OpenAPI description served at /swagger.json.
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
        "/api/auth/signup": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Create an account",
                "parameters": [
                    {"description": "credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.CredentialsRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.TokenResponse"}},
                    "400": {"description": "Bad Request"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/api/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log in",
                "parameters": [
                    {"description": "credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.CredentialsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.TokenResponse"}},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/api/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.UserInfo"}},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/rooms": {
            "get": {
                "produces": ["application/json"],
                "tags": ["rooms"],
                "summary": "List rooms open for joining",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.RoomSummary"}}}
                }
            }
        },
        "/rooms/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["rooms"],
                "summary": "Room state",
                "parameters": [{"type": "string", "description": "room id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.RoomState"}},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/races/{roomId}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["races"],
                "summary": "Live race state",
                "parameters": [{"type": "string", "description": "room id", "name": "roomId", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.RaceState"}},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/races/{roomId}/results": {
            "get": {
                "produces": ["application/json"],
                "tags": ["races"],
                "summary": "Ranked results",
                "parameters": [{"type": "string", "description": "room id", "name": "roomId", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.RaceResult"}}},
                    "404": {"description": "Not Found"}
                }
            }
        }
    },
    "definitions": {
        "model.CredentialsRequest": {
            "type": "object",
            "properties": {"username": {"type": "string"}, "password": {"type": "string"}}
        },
        "model.UserInfo": {
            "type": "object",
            "properties": {"id": {"type": "string"}, "username": {"type": "string"}}
        },
        "model.TokenResponse": {
            "type": "object",
            "properties": {"token": {"type": "string"}, "user": {"$ref": "#/definitions/model.UserInfo"}}
        },
        "model.RoomPlayer": {
            "type": "object",
            "properties": {"userId": {"type": "string"}, "username": {"type": "string"}, "joinedAt": {"type": "string"}}
        },
        "model.RoomSummary": {
            "type": "object",
            "properties": {"id": {"type": "string"}, "playerCount": {"type": "integer"}, "maxPlayers": {"type": "integer"}, "status": {"type": "string"}}
        },
        "model.RoomState": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "status": {"type": "string", "enum": ["waiting", "countdown", "in-progress", "finished"]},
                "hostUserId": {"type": "string"},
                "players": {"type": "array", "items": {"$ref": "#/definitions/model.RoomPlayer"}},
                "maxPlayers": {"type": "integer"}
            }
        },
        "model.RacePlayer": {
            "type": "object",
            "properties": {
                "userId": {"type": "string"},
                "username": {"type": "string"},
                "progress": {"type": "number"},
                "wpm": {"type": "integer"},
                "accuracy": {"type": "number"},
                "finished": {"type": "boolean"},
                "finishedAt": {"type": "string"},
                "left": {"type": "boolean"}
            }
        },
        "model.RaceState": {
            "type": "object",
            "properties": {
                "roomId": {"type": "string"},
                "text": {"type": "string"},
                "status": {"type": "string", "enum": ["active", "finished"]},
                "startedAt": {"type": "string"},
                "players": {"type": "array", "items": {"$ref": "#/definitions/model.RacePlayer"}}
            }
        },
        "model.RaceResult": {
            "type": "object",
            "properties": {
                "position": {"type": "integer"},
                "userId": {"type": "string"},
                "username": {"type": "string"},
                "wpm": {"type": "integer"},
                "accuracy": {"type": "number"},
                "progress": {"type": "number"},
                "finished": {"type": "boolean"},
                "finishedAt": {"type": "string"},
                "left": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "typerace API",
	Description:      "Multiplayer typing races: accounts, rooms and race sessions",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
