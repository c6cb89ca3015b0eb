// Package docs registers the OpenAPI description of the diary service.
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
        "/save-data": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["backend"],
                "summary": "Save diary graph",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/api.SaveDataRequest"}}],
                "responses": {
                    "200": {"description": "Graph stored", "schema": {"$ref": "#/definitions/api.SaveDataResponse"}},
                    "400": {"description": "Invalid graph", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "409": {"description": "A newer snapshot is stored", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/load-data/{username}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["backend"],
                "summary": "Load diary graph",
                "parameters": [{"type": "string", "description": "Diary owner", "name": "username", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Stored graph", "schema": {"$ref": "#/definitions/api.LoadDataResponse"}}
                }
            }
        },
        "/chat": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["backend"],
                "summary": "Ask about a thought",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/ports.ChatRequest"}}],
                "responses": {
                    "200": {"description": "Model answer", "schema": {"$ref": "#/definitions/api.ChatResponse"}},
                    "502": {"description": "Model unavailable", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "504": {"description": "Model timed out", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/chain_chat": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["backend"],
                "summary": "Ask about a chain of thoughts",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/ports.ChainChatRequest"}}],
                "responses": {
                    "200": {"description": "Model answer", "schema": {"$ref": "#/definitions/api.ChatResponse"}}
                }
            }
        },
        "/api/v1/sessions/{username}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Get session snapshot",
                "parameters": [{"type": "string", "name": "username", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Current graph", "schema": {"$ref": "#/definitions/api.GraphResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["sessions"],
                "summary": "Close session",
                "parameters": [{"type": "string", "name": "username", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "Session closed"},
                    "404": {"description": "No open session", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/api/v1/sessions/{username}/commands": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Run editing command",
                "parameters": [
                    {"type": "string", "name": "username", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/api.CommandEnvelope"}}
                ],
                "responses": {
                    "200": {"description": "Command applied", "schema": {"$ref": "#/definitions/api.CommandResponse"}},
                    "201": {"description": "Node created", "schema": {"$ref": "#/definitions/api.CommandResponse"}},
                    "202": {"description": "Enrichment started", "schema": {"$ref": "#/definitions/api.CommandResponse"}},
                    "422": {"description": "Node has no ancestors", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "423": {"description": "Node is locked", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/api/v1/sessions/{username}/pointer": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Report pointer gesture",
                "parameters": [
                    {"type": "string", "name": "username", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/api.PointerEvent"}}
                ],
                "responses": {
                    "200": {"description": "Interaction state and selection", "schema": {"$ref": "#/definitions/api.CommandResponse"}}
                }
            }
        },
        "/api/v1/operations/{operationID}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["operations"],
                "summary": "Get operation status",
                "parameters": [{"type": "string", "name": "operationID", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Operation status", "schema": {"$ref": "#/definitions/ports.OperationResult"}},
                    "404": {"description": "Operation not found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "api.XY": {
            "type": "object",
            "properties": {"x": {"type": "number"}, "y": {"type": "number"}}
        },
        "api.Node": {
            "type": "object",
            "required": ["id"],
            "properties": {
                "id": {"type": "string"},
                "type": {"type": "string", "enum": ["custom", "textBlock"]},
                "position": {"$ref": "#/definitions/api.XY"},
                "data": {
                    "type": "object",
                    "properties": {
                        "label": {"type": "string"},
                        "isLocked": {"type": "boolean"},
                        "isHighlighted": {"type": "boolean"},
                        "isCollapsed": {"type": "boolean"}
                    }
                },
                "width": {"type": "number"}
            }
        },
        "api.Edge": {
            "type": "object",
            "required": ["id", "source", "target"],
            "properties": {
                "id": {"type": "string"},
                "source": {"type": "string"},
                "target": {"type": "string"},
                "type": {"type": "string"},
                "animated": {"type": "boolean"},
                "className": {"type": "string"}
            }
        },
        "api.SaveDataRequest": {
            "type": "object",
            "required": ["username"],
            "properties": {
                "username": {"type": "string"},
                "nodes": {"type": "array", "items": {"$ref": "#/definitions/api.Node"}},
                "edges": {"type": "array", "items": {"$ref": "#/definitions/api.Edge"}}
            }
        },
        "api.SaveDataResponse": {
            "type": "object",
            "properties": {"status": {"type": "string"}, "last_updated": {"type": "string"}}
        },
        "api.LoadDataResponse": {
            "type": "object",
            "properties": {
                "nodes": {"type": "array", "items": {"$ref": "#/definitions/api.Node"}},
                "edges": {"type": "array", "items": {"$ref": "#/definitions/api.Edge"}},
                "last_updated": {"type": "string"},
                "empty": {"type": "boolean"}
            }
        },
        "api.ChatResponse": {
            "type": "object",
            "properties": {"response": {"type": "string"}}
        },
        "api.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}, "kind": {"type": "string"}}
        },
        "api.GraphResponse": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "version": {"type": "integer"},
                "nodes": {"type": "array", "items": {"$ref": "#/definitions/api.Node"}},
                "edges": {"type": "array", "items": {"$ref": "#/definitions/api.Edge"}}
            }
        },
        "api.CommandEnvelope": {
            "type": "object",
            "required": ["type"],
            "properties": {"type": {"type": "string"}, "payload": {"type": "object"}}
        },
        "api.CommandResponse": {
            "type": "object",
            "properties": {"type": {"type": "string"}, "result": {"type": "object"}, "version": {"type": "integer"}}
        },
        "api.PointerEvent": {
            "type": "object",
            "required": ["type"],
            "properties": {
                "type": {"type": "string", "enum": ["node_down", "edge_down", "blank_down", "rect_release", "drag_start", "drag_move", "drag_end"]},
                "nodeId": {"type": "string"},
                "edgeId": {"type": "string"},
                "nodeIds": {"type": "array", "items": {"type": "string"}},
                "position": {"$ref": "#/definitions/api.XY"},
                "additive": {"type": "boolean"}
            }
        },
        "ports.ChatRequest": {
            "type": "object",
            "required": ["message"],
            "properties": {"message": {"type": "string"}, "temperature": {"type": "number"}, "max_tokens": {"type": "integer"}}
        },
        "ports.ChainChatRequest": {
            "type": "object",
            "required": ["chain_nodes"],
            "properties": {
                "chain_nodes": {
                    "type": "array",
                    "items": {"type": "object", "properties": {"id": {"type": "string"}, "label": {"type": "string"}}}
                },
                "target_node_content": {"type": "string"},
                "temperature": {"type": "number"}
            }
        },
        "ports.OperationResult": {
            "type": "object",
            "properties": {
                "operation_id": {"type": "string"},
                "username": {"type": "string"},
                "kind": {"type": "string"},
                "status": {"type": "string", "enum": ["pending", "completed", "failed", "cancelled"]},
                "started_at": {"type": "string"},
                "completed_at": {"type": "string"},
                "error": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token",
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
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Cognitive Diary API",
	Description:      "Stores thought graphs, answers enrichment requests and hosts editing sessions",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
