package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "School Records API",
        "description": "Grade aggregation and ranking service",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Grades", "description": "Grade submission, grade book and ranked sheet export"}
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
                    "200": {"description": "Ready"},
                    "503": {"description": "Degraded"}
                }
            }
        },
        "/api/v1/grades": {
            "get": {
                "tags": ["Grades"],
                "summary": "Read the grade book for a filter scope",
                "parameters": [
                    {"name": "classId", "in": "query", "type": "string"},
                    {"name": "subjectId", "in": "query", "type": "string"},
                    {"name": "gradingCycleId", "in": "query", "type": "string"},
                    {"name": "studentId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "Grade book"}
                }
            },
            "post": {
                "tags": ["Grades"],
                "summary": "Submit a batch of component scores",
                "description": "Accepts the object body or the legacy bare student array with subjectId/classId/gradingCycleId/assessments as query parameters.",
                "responses": {
                    "200": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "Fresh aggregates and component scores with rank metadata"},
                    "400": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "Validation failure, nothing written"},
                    "404": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "Unknown grading cycle"}
                }
            }
        },
        "/api/v1/grades/export": {
            "get": {
                "tags": ["Grades"],
                "summary": "Export the ranked grade sheet for a peer group",
                "parameters": [
                    {"name": "classId", "in": "query", "type": "string", "required": true},
                    {"name": "subjectId", "in": "query", "type": "string", "required": true},
                    {"name": "gradingCycleId", "in": "query", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Rendered sheet"}
                }
            }
        }
    },
    "definitions": {
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
