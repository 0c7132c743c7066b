package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "EcoSchool API",
        "description": "School sustainability ledger: activity logging, carbon accounting, leaderboards and verification",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Entries", "description": "Activity ledger"},
        {"name": "Factors", "description": "CO2 conversion factors"},
        {"name": "Dashboard", "description": "Aggregated school view"},
        {"name": "Leaderboards", "description": "Class and student rankings"},
        {"name": "Verification", "description": "Admin verification workflow"},
        {"name": "Admin", "description": "Admin session and ledger maintenance"},
        {"name": "Reports", "description": "Ledger exports"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/entries": {
            "get": {
                "tags": ["Entries"],
                "summary": "List ledger entries, newest first",
                "parameters": [
                    {"name": "verified", "in": "query", "type": "string", "enum": ["all", "true", "false"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Entries"],
                "summary": "Log an activity",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitEntryRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/entries/{id}/verify": {
            "post": {
                "tags": ["Verification"],
                "summary": "Verify one entry (admin)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Entry not found"}
                }
            }
        },
        "/entries/verify-all": {
            "post": {
                "tags": ["Verification"],
                "summary": "Verify every pending entry (admin)",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/factors": {
            "get": {
                "tags": ["Factors"],
                "summary": "List conversion factors",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/factors/{category}": {
            "put": {
                "tags": ["Factors"],
                "summary": "Set a conversion factor (admin)",
                "parameters": [
                    {"name": "category", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetFactorRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Validation error"}
                }
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Windowed totals, breakdowns, badge and equivalents",
                "parameters": [
                    {"name": "window", "in": "query", "type": "string", "enum": ["all", "last_7_days", "last_30_days", "last_365_days"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/leaderboard/classes": {
            "get": {
                "tags": ["Leaderboards"],
                "summary": "Class leaderboard over verified entries",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/leaderboard/students": {
            "get": {
                "tags": ["Leaderboards"],
                "summary": "Student leaderboard over verified entries",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/challenge/weekly": {
            "get": {
                "tags": ["Leaderboards"],
                "summary": "Class board over verified entries since Monday",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/login": {
            "post": {
                "tags": ["Admin"],
                "summary": "Open an admin session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Invalid password"}
                }
            }
        },
        "/admin/clear": {
            "post": {
                "tags": ["Admin"],
                "summary": "Propose clearing the ledger (admin)",
                "responses": {
                    "200": {"description": "Confirmation token issued"}
                }
            }
        },
        "/admin/clear/confirm": {
            "post": {
                "tags": ["Admin"],
                "summary": "Confirm clearing the ledger (admin)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ConfirmClearRequest"}}
                ],
                "responses": {
                    "204": {"description": "Ledger cleared"},
                    "400": {"description": "Token missing, expired or already used"}
                }
            }
        },
        "/admin/reports": {
            "post": {
                "tags": ["Reports"],
                "summary": "Queue a ledger export (admin)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateReportRequest"}}
                ],
                "responses": {
                    "201": {"description": "Job queued"}
                }
            }
        },
        "/admin/reports/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Export job status (admin)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Job not found"}
                }
            }
        },
        "/export/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a finished export",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File stream"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "SubmitEntryRequest": {
            "type": "object",
            "required": ["student", "class_name", "activity_date", "category"],
            "properties": {
                "student": {"type": "string"},
                "class_name": {"type": "string"},
                "activity_date": {"type": "string", "format": "date"},
                "category": {"type": "string"},
                "quantity": {"type": "number", "minimum": 0},
                "unit": {"type": "string"},
                "notes": {"type": "string"},
                "photo": {"type": "string", "format": "byte"}
            }
        },
        "SetFactorRequest": {
            "type": "object",
            "required": ["factor"],
            "properties": {
                "factor": {"type": "number", "minimum": 0}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["password"],
            "properties": {
                "password": {"type": "string"}
            }
        },
        "ConfirmClearRequest": {
            "type": "object",
            "required": ["confirm_token"],
            "properties": {
                "confirm_token": {"type": "string"}
            }
        },
        "CreateReportRequest": {
            "type": "object",
            "required": ["format"],
            "properties": {
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
