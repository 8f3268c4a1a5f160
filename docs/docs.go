// Package docs holds the OpenAPI description of the HTTP API, registered
// with swag so gin-swagger can serve it at /swagger/*any.
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
        "/health": {
            "get": {
                "description": "Returns the health status of the service",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/handler.healthResponse"}
                    }
                }
            }
        },
        "/api/candles/{symbol}": {
            "get": {
                "description": "Returns daily candles for a ticker over the trailing window",
                "produces": ["application/json"],
                "tags": ["candles"],
                "summary": "Get daily OHLCV candles",
                "parameters": [
                    {"type": "string", "description": "Ticker (e.g., AAPL)", "name": "symbol", "in": "path", "required": true},
                    {"type": "integer", "default": 90, "description": "Trailing calendar days (default 90, max 3650)", "name": "days", "in": "query"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "properties": {
                                "symbol": {"type": "string"},
                                "days": {"type": "integer"},
                                "candles": {"type": "array", "items": {"$ref": "#/definitions/domain.Candle"}}
                            }
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/api/ml/train": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Runs a training cycle with optional overrides and returns the held-out report",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["ml"],
                "summary": "Train the signal ensemble",
                "parameters": [
                    {"description": "Config overrides", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/training.Request"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/training.RunResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/api/ml/predict": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Scores feature rows with the most recently trained ensemble",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["ml"],
                "summary": "Predict with the latest ensemble",
                "parameters": [
                    {"description": "Feature rows", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.predictRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/training.Prediction"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/api/ml/runs": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Returns the most recent training runs, newest first",
                "produces": ["application/json"],
                "tags": ["ml"],
                "summary": "List training runs",
                "parameters": [
                    {"type": "integer", "default": 20, "description": "Number of runs (default 20, max 200)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "properties": {
                                "runs": {"type": "array", "items": {"$ref": "#/definitions/domain.TrainingRun"}}
                            }
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "domain.Candle": {
            "type": "object",
            "properties": {
                "symbol": {"type": "string"},
                "interval": {"type": "string"},
                "open_time": {"type": "string"},
                "open": {"type": "number"},
                "high": {"type": "number"},
                "low": {"type": "number"},
                "close": {"type": "number"},
                "volume": {"type": "number"}
            }
        },
        "domain.TrainingRun": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "symbol": {"type": "string"},
                "learner": {"type": "string"},
                "classifier": {"type": "boolean"},
                "bags": {"type": "integer"},
                "leaf_size": {"type": "integer"},
                "max_depth": {"type": "integer"},
                "seed": {"type": "integer"},
                "train_rows": {"type": "integer"},
                "test_rows": {"type": "integer"},
                "train_from": {"type": "string"},
                "test_to": {"type": "string"},
                "status": {"type": "string", "enum": ["succeeded", "failed"]},
                "metrics_json": {"type": "string"},
                "error": {"type": "string"},
                "duration_ms": {"type": "integer"},
                "created_at": {"type": "string"}
            }
        },
        "evaluation.ClassificationStats": {
            "type": "object",
            "properties": {
                "accuracy": {"type": "number"},
                "precision": {"type": "number"},
                "recall": {"type": "number"},
                "f1": {"type": "number"},
                "labels": {"type": "array", "items": {"type": "string"}},
                "confusion": {"type": "array", "items": {"type": "array", "items": {"type": "integer"}}},
                "per_class": {"type": "array", "items": {"$ref": "#/definitions/evaluation.ClassStats"}},
                "n": {"type": "integer"}
            }
        },
        "evaluation.ClassStats": {
            "type": "object",
            "properties": {
                "label": {"type": "string"},
                "precision": {"type": "number"},
                "recall": {"type": "number"},
                "f1": {"type": "number"},
                "support": {"type": "integer"}
            }
        },
        "evaluation.RegressionStats": {
            "type": "object",
            "properties": {
                "rmse": {"type": "number"},
                "mae": {"type": "number"},
                "n": {"type": "integer"}
            }
        },
        "handler.errorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        },
        "handler.healthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "service": {"type": "string"},
                "version": {"type": "string"},
                "model_trained": {"type": "boolean"}
            }
        },
        "handler.predictRequest": {
            "type": "object",
            "properties": {
                "rows": {
                    "type": "array",
                    "items": {"type": "object", "additionalProperties": {"type": "number"}}
                }
            }
        },
        "training.Prediction": {
            "type": "object",
            "properties": {
                "symbol": {"type": "string"},
                "labels": {"type": "array", "items": {"type": "string"}},
                "values": {"type": "array", "items": {"type": "number"}}
            }
        },
        "training.Request": {
            "type": "object",
            "properties": {
                "symbol": {"type": "string"},
                "lookback_days": {"type": "integer"},
                "signal_threshold": {"type": "number"},
                "learner": {"type": "string", "enum": ["dt", "rt"]},
                "bags": {"type": "integer"},
                "leaf_size": {"type": "integer"},
                "max_depth": {"type": "integer"},
                "classifier": {"type": "boolean"},
                "train_fraction": {"type": "number"},
                "seed": {"type": "integer"},
                "baseline": {"type": "boolean"}
            }
        },
        "training.RunResult": {
            "type": "object",
            "properties": {
                "run": {"$ref": "#/definitions/domain.TrainingRun"},
                "classification": {"$ref": "#/definitions/evaluation.ClassificationStats"},
                "regression": {"$ref": "#/definitions/evaluation.RegressionStats"},
                "baseline": {"$ref": "#/definitions/evaluation.ClassificationStats"}
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

// SwaggerInfo holds the exported API info so callers can override the host
// or base path at start-up.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Signal Forest API",
	Description:      "Daily Buy/Sell/Hold signals from bagged decision trees.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
