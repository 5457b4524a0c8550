// Package docs holds the OpenAPI description served at /api-docs.
// Regenerate with: swag init -g cmd/server/main.go -o docs
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
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.HealthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/model.HealthResponse"}}
                }
            }
        },
        "/v1/invoices": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["invoices"],
                "summary": "List invoices",
                "parameters": [
                    {"type": "string", "description": "Matches invoice number or customer name", "name": "search", "in": "query"},
                    {"type": "string", "description": "unpaid, partially_paid, fully_paid or overdue", "name": "payment_status", "in": "query"},
                    {"type": "integer", "description": "Customer ID", "name": "customer_id", "in": "query"},
                    {"type": "integer", "description": "Page number (default 1)", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size (default 10, max 100)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.InvoicesListResponse"}},
                    "400": {"description": "Invalid query parameters", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["invoices"],
                "summary": "Create an invoice",
                "parameters": [
                    {"description": "Invoice to create", "name": "invoice", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.CreateInvoiceRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.InvoiceResponse"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "404": {"description": "Customer or catalog item not found", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/v1/invoices/overdue": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["invoices"],
                "summary": "List overdue invoices",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.OverdueInvoicesResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/v1/invoices/summary": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["invoices"],
                "summary": "Invoice summary",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.SummaryResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/v1/invoices/{invoiceId}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["invoices"],
                "summary": "Get an invoice",
                "parameters": [{"type": "integer", "description": "Invoice ID", "name": "invoiceId", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.InvoiceResponse"}},
                    "404": {"description": "Invoice not found", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["invoices"],
                "summary": "Update an invoice",
                "parameters": [
                    {"type": "integer", "description": "Invoice ID", "name": "invoiceId", "in": "path", "required": true},
                    {"description": "New invoice contents", "name": "invoice", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.UpdateInvoiceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.InvoiceResponse"}},
                    "409": {"description": "Invoice can no longer be edited", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["invoices"],
                "summary": "Delete an invoice",
                "parameters": [{"type": "integer", "description": "Invoice ID", "name": "invoiceId", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "Invoice deleted"},
                    "409": {"description": "Invoice has payments", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/v1/invoices/{invoiceId}/cancel": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["invoices"],
                "summary": "Cancel an invoice",
                "parameters": [
                    {"type": "integer", "description": "Invoice ID", "name": "invoiceId", "in": "path", "required": true},
                    {"description": "Cancellation reason", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.CancelInvoiceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.InvoiceResponse"}},
                    "409": {"description": "Invoice already cancelled", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/v1/invoices/{invoiceId}/payments": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "Record a payment",
                "parameters": [
                    {"type": "integer", "description": "Invoice ID", "name": "invoiceId", "in": "path", "required": true},
                    {"description": "Payment", "name": "payment", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.RecordPaymentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.InvoiceResponse"}},
                    "400": {"description": "Invalid payment", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "409": {"description": "Invoice cancelled or already fully paid", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "model.ErrorDetail": {
            "type": "object",
            "properties": {"field": {"type": "string"}, "message": {"type": "string"}}
        },
        "model.ErrorResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "message": {"type": "string"},
                "details": {"type": "array", "items": {"$ref": "#/definitions/model.ErrorDetail"}}
            }
        },
        "model.HealthResponse": {
            "type": "object",
            "properties": {"status": {"type": "string"}, "database": {"type": "string"}}
        },
        "model.LineItemRequest": {
            "type": "object",
            "required": ["item_type", "quantity"],
            "properties": {
                "item_type": {"type": "string", "enum": ["service", "inventory_item", "consultation", "vaccination"], "example": "vaccination"},
                "item_id": {"type": "integer", "example": 3},
                "item_name": {"type": "string", "example": "Rabies vaccine"},
                "quantity": {"type": "integer", "example": 1},
                "unit_price": {"type": "string", "example": "500.00"},
                "discount": {"type": "string", "example": "0.00"}
            }
        },
        "model.CreateInvoiceRequest": {
            "type": "object",
            "required": ["customer_id", "bill_date", "items"],
            "properties": {
                "customer_id": {"type": "integer", "example": 1},
                "bill_date": {"type": "string", "example": "2024-01-31"},
                "due_date": {"type": "string", "example": "2024-02-14"},
                "discount_percentage": {"type": "string", "example": "10"},
                "tax_percentage": {"type": "string", "example": "5"},
                "notes": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/model.LineItemRequest"}},
                "paid_amount": {"type": "string", "example": "100.00"},
                "payment_method": {"type": "string", "enum": ["cash", "card", "bank_transfer", "mobile_payment", "insurance"]},
                "payment_reference": {"type": "string"},
                "card_type": {"type": "string"},
                "bank_name": {"type": "string"}
            }
        },
        "model.UpdateInvoiceRequest": {
            "type": "object",
            "required": ["customer_id", "bill_date", "items"],
            "properties": {
                "customer_id": {"type": "integer", "example": 1},
                "bill_date": {"type": "string", "example": "2024-01-31"},
                "due_date": {"type": "string", "example": "2024-02-14"},
                "discount_percentage": {"type": "string", "example": "10"},
                "tax_percentage": {"type": "string", "example": "5"},
                "notes": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/model.LineItemRequest"}}
            }
        },
        "model.RecordPaymentRequest": {
            "type": "object",
            "required": ["amount", "payment_method"],
            "properties": {
                "amount": {"type": "string", "example": "945.00"},
                "payment_method": {"type": "string", "enum": ["cash", "card", "bank_transfer", "mobile_payment", "insurance"]},
                "payment_reference": {"type": "string"},
                "card_type": {"type": "string", "example": "visa"},
                "bank_name": {"type": "string"},
                "notes": {"type": "string"}
            }
        },
        "model.CancelInvoiceRequest": {
            "type": "object",
            "required": ["reason"],
            "properties": {"reason": {"type": "string", "example": "Duplicate invoice"}}
        },
        "model.CustomerResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"}
            }
        },
        "model.LineItemResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "item_type": {"type": "string"},
                "item_id": {"type": "integer"},
                "item_name": {"type": "string"},
                "quantity": {"type": "integer"},
                "unit_price": {"type": "string", "example": "500.00"},
                "discount": {"type": "string", "example": "0.00"},
                "line_total": {"type": "string", "example": "1000.00"}
            }
        },
        "model.PaymentResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "amount": {"type": "string", "example": "945.00"},
                "payment_method": {"type": "string"},
                "payment_reference": {"type": "string"},
                "notes": {"type": "string"},
                "card_type": {"type": "string"},
                "bank_name": {"type": "string"},
                "recorded_at": {"type": "string"},
                "recorded_by": {"type": "string"}
            }
        },
        "model.InvoiceResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "invoice_number": {"type": "string", "example": "INV-20240131-0001"},
                "customer_id": {"type": "integer"},
                "customer": {"$ref": "#/definitions/model.CustomerResponse"},
                "bill_date": {"type": "string", "example": "2024-01-31"},
                "due_date": {"type": "string", "example": "2024-02-14"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/model.LineItemResponse"}},
                "discount_percentage": {"type": "string", "example": "10"},
                "tax_percentage": {"type": "string", "example": "5"},
                "notes": {"type": "string"},
                "subtotal": {"type": "string", "example": "1000.00"},
                "discount_amount": {"type": "string", "example": "100.00"},
                "taxable_amount": {"type": "string", "example": "900.00"},
                "tax_amount": {"type": "string", "example": "45.00"},
                "total_amount": {"type": "string", "example": "945.00"},
                "paid_amount": {"type": "string", "example": "0.00"},
                "balance_amount": {"type": "string", "example": "945.00"},
                "payment_status": {"type": "string", "example": "unpaid"},
                "payments": {"type": "array", "items": {"$ref": "#/definitions/model.PaymentResponse"}},
                "cancelled": {"type": "boolean"},
                "cancelled_at": {"type": "string"},
                "cancelled_by": {"type": "string"},
                "cancellation_reason": {"type": "string"},
                "created_by": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "model.PaginationResponse": {
            "type": "object",
            "properties": {
                "totalItems": {"type": "integer"},
                "totalPages": {"type": "integer"},
                "currentPage": {"type": "integer"},
                "limit": {"type": "integer"}
            }
        },
        "model.InvoicesListResponse": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/model.InvoiceResponse"}},
                "pagination": {"$ref": "#/definitions/model.PaginationResponse"}
            }
        },
        "model.OverdueInvoicesResponse": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/model.InvoiceResponse"}},
                "count": {"type": "integer"}
            }
        },
        "model.SummaryResponse": {
            "type": "object",
            "properties": {
                "invoice_count": {"type": "integer"},
                "total_billed": {"type": "string", "example": "12500.00"},
                "total_collected": {"type": "string", "example": "9800.00"},
                "total_outstanding": {"type": "string", "example": "2700.00"},
                "unpaid_count": {"type": "integer"},
                "partially_paid_count": {"type": "integer"},
                "fully_paid_count": {"type": "integer"},
                "overdue_count": {"type": "integer"}
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
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Vet Clinic Billing API",
	Description:      "Invoice ledger for a veterinary clinic: invoices, payments and balances.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
