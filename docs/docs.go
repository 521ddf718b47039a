// Package docs Route Freshness API.
//
// Сервис ранжирования маршрутов по перекрытию с недавними активностями пользователя.
// Шаблон регистрируется в swag и отдаётся через /swagger/doc.json.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/freshness/score": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Freshness"],
                "summary": "Оценка свежести маршрутов",
                "parameters": [
                    {
                        "description": "Активности и маршруты-кандидаты",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/dto.ScoreRoutesRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/v1/me/routes/freshness": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Freshness"],
                "summary": "Свежесть сохранённых маршрутов",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/v1/me/aggregate/refresh": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Freshness"],
                "summary": "Пересборка агрегата активностей",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/v1/me/heatmap": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json", "application/geo+json", "application/vnd.google-earth.kml+xml"],
                "tags": ["Heatmap"],
                "summary": "Тепловая карта активностей",
                "parameters": [
                    {"enum": ["json", "geojson", "kml"], "type": "string", "default": "json", "name": "format", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/v1/me/routes/{id}/heatmap": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json", "application/geo+json", "application/vnd.google-earth.kml+xml"],
                "tags": ["Heatmap"],
                "summary": "Тепловая карта маршрута",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"enum": ["json", "geojson", "kml"], "type": "string", "default": "json", "name": "format", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/v1/me/routes/gpx": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["GPX"],
                "summary": "Импорт маршрута из GPX",
                "parameters": [
                    {"type": "file", "name": "file", "in": "formData", "required": true},
                    {"type": "string", "name": "name", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/v1/me/routes/{id}/gpx": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/gpx+xml"],
                "tags": ["GPX"],
                "summary": "Экспорт маршрута в GPX",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/v1/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Statistics"],
                "summary": "Get service statistics",
                "parameters": [
                    {"type": "boolean", "description": "Пересчитать в обход кэша", "name": "refresh", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}}
                }
            }
        }
    },
    "definitions": {
        "dto.Point": {
            "type": "object",
            "properties": {
                "lat": {"type": "number"},
                "lon": {"type": "number"},
                "ele": {"type": "number"}
            }
        },
        "dto.RouteInput": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "points": {"type": "array", "items": {"$ref": "#/definitions/dto.Point"}},
                "polyline": {"type": "string"}
            }
        },
        "dto.GridParams": {
            "type": "object",
            "properties": {
                "cell_size_km": {"type": "number"},
                "reference_lat": {"type": "number"},
                "reference_lon": {"type": "number"}
            }
        },
        "dto.ScoreRoutesRequest": {
            "type": "object",
            "required": ["routes"],
            "properties": {
                "grid": {"$ref": "#/definitions/dto.GridParams"},
                "activities": {"type": "array", "items": {"$ref": "#/definitions/dto.RouteInput"}},
                "routes": {"type": "array", "items": {"$ref": "#/definitions/dto.RouteInput"}}
            }
        },
        "errors.AppError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "details": {"type": "object", "additionalProperties": true}
            }
        },
        "utils.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/errors.AppError"}
            }
        },
        "utils.SuccessResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "meta": {"type": "object", "additionalProperties": true}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Route Freshness API",
	Description:      "Сервис ранжирования маршрутов по свежести: насколько мало маршрут пересекается с недавними активностями пользователя.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
