package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Academic Marks API",
        "description": "Spreadsheet mark ingestion and per-student mark ledgers",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Marks", "description": "Uploads, direct saves and ledgers"},
        {"name": "Exports", "description": "Rendered ledger downloads"},
        {"name": "Analysis", "description": "Per-semester course statistics"}
    ],
    "paths": {
        "/marks/upload": {
            "post": {
                "tags": ["Marks"],
                "summary": "Upload a marks spreadsheet",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true, "description": ".xlsx, .xlsm, .xls or .csv"},
                    {"name": "semester", "in": "formData", "type": "string", "description": "Overrides the semester in cell A1"},
                    {"name": "async", "in": "formData", "type": "boolean", "description": "Queue the import and return a job id"}
                ],
                "responses": {
                    "200": {"description": "Import summary", "schema": {"$ref": "#/definitions/ImportSummary"}},
                    "202": {"description": "Import queued", "schema": {"$ref": "#/definitions/ImportAccepted"}},
                    "400": {"description": "Missing semester or invalid upload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "File too large", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "415": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Ledger store unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/marks/imports/{id}": {
            "get": {
                "tags": ["Marks"],
                "summary": "Import job status",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "Job", "schema": {"$ref": "#/definitions/ImportJob"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/marks/template": {
            "get": {
                "tags": ["Marks"],
                "summary": "Download an upload template",
                "security": [{"BearerAuth": []}],
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"name": "semester", "in": "query", "type": "string"},
                    {"name": "subject", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "Workbook", "schema": {"type": "file"}}}
            }
        },
        "/marks": {
            "post": {
                "tags": ["Marks"],
                "summary": "Save a single course mark",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveMarkRequest"}}],
                "responses": {
                    "200": {"description": "Saved entry", "schema": {"$ref": "#/definitions/MarkLedgerEntry"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{usn}/marks": {
            "get": {
                "tags": ["Marks"],
                "summary": "Student ledger",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "usn", "in": "path", "type": "string", "required": true},
                    {"name": "semester", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Ledger", "schema": {"$ref": "#/definitions/Ledger"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{usn}/marks/export": {
            "post": {
                "tags": ["Exports"],
                "summary": "Export a student ledger",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "usn", "in": "path", "type": "string", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {"200": {"description": "Signed download link", "schema": {"$ref": "#/definitions/ExportResponse"}}}
            }
        },
        "/export/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a rendered export",
                "parameters": [{"name": "token", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "403": {"description": "Invalid or expired link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/analysis/semesters": {
            "get": {
                "tags": ["Analysis"],
                "summary": "Semesters with recorded marks",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Semester labels", "schema": {"type": "array", "items": {"type": "string"}}}}
            }
        },
        "/analysis/semesters/{semester}": {
            "get": {
                "tags": ["Analysis"],
                "summary": "Per-course statistics for a semester",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "semester", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "Analysis", "schema": {"$ref": "#/definitions/SemesterAnalysis"}},
                    "404": {"description": "No marks for semester", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ImportSummary": {
            "type": "object",
            "properties": {
                "subject": {"type": "string"},
                "semester": {"type": "string"},
                "rows_parsed": {"type": "integer"},
                "students_affected": {"type": "integer"},
                "rows_written": {"type": "integer"},
                "entries_created": {"type": "integer"},
                "entries_updated": {"type": "integer"}
            }
        },
        "ImportAccepted": {
            "type": "object",
            "properties": {"id": {"type": "string"}, "status": {"type": "string"}}
        },
        "ImportJob": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "filename": {"type": "string"},
                "semester_override": {"type": "string"},
                "status": {"type": "string", "enum": ["QUEUED", "PROCESSING", "FINISHED", "FAILED"]},
                "summary": {"$ref": "#/definitions/ImportSummary"},
                "error": {"type": "string"},
                "created_by": {"type": "string"},
                "created_at": {"type": "string", "format": "date-time"},
                "finished_at": {"type": "string", "format": "date-time"}
            }
        },
        "SaveMarkRequest": {
            "type": "object",
            "required": ["usn", "course_name", "semester_name"],
            "properties": {
                "usn": {"type": "string"},
                "course_name": {"type": "string"},
                "course_id": {"type": "string"},
                "semester_name": {"type": "string"},
                "ia1": {"type": "number"},
                "ia2": {"type": "number"},
                "exam_mark": {"type": "number"},
                "assignments": {"type": "number"}
            }
        },
        "MarkLedgerEntry": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "usn": {"type": "string"},
                "course_id": {"type": "string"},
                "course_name": {"type": "string"},
                "semester_name": {"type": "string"},
                "ia1": {"type": "number"},
                "ia2": {"type": "number"},
                "assignments": {"type": "number"},
                "exam_mark": {"type": "number"},
                "total_marks": {"type": "number"},
                "grade": {"type": "string"}
            }
        },
        "Ledger": {
            "type": "object",
            "properties": {
                "usn": {"type": "string"},
                "entries": {"type": "array", "items": {"$ref": "#/definitions/MarkLedgerEntry"}}
            }
        },
        "ExportRequest": {
            "type": "object",
            "required": ["format"],
            "properties": {"format": {"type": "string", "enum": ["csv", "pdf", "xlsx"]}}
        },
        "ExportResponse": {
            "type": "object",
            "properties": {
                "url": {"type": "string"},
                "format": {"type": "string"},
                "expires_at": {"type": "string", "format": "date-time"}
            }
        },
        "CourseAnalysis": {
            "type": "object",
            "properties": {
                "course_id": {"type": "string"},
                "course_name": {"type": "string"},
                "student_count": {"type": "integer"},
                "average_marks": {"type": "number"},
                "highest_marks": {"type": "number"},
                "lowest_marks": {"type": "number"},
                "grade_distribution": {"type": "object", "additionalProperties": {"type": "integer"}}
            }
        },
        "SemesterAnalysis": {
            "type": "object",
            "properties": {
                "semester": {"type": "string"},
                "student_count": {"type": "integer"},
                "courses": {"type": "array", "items": {"$ref": "#/definitions/CourseAnalysis"}}
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
