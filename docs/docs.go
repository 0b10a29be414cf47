// Package docs registers the OpenAPI document served under /swagger.
// Regenerate from the handler annotations with:
//
//	swag init -g cmd/server/main.go -o docs --parseInternal
package docs

//go:generate swag init -g ../cmd/server/main.go -d .. -o . --parseInternal

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "consumes": ["application/json"],
    "produces": ["application/json"],
    "paths": {
        "/health": {"get": {"tags": ["system"], "summary": "Liveness check", "operationId": "getHealth", "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}},
        "/system/info": {"get": {"tags": ["system"], "summary": "Get system information", "operationId": "getSystemInfo", "responses": {"200": {"description": "OK"}}}},
        "/tenants": {
            "get": {"tags": ["tenants"], "summary": "List tenants", "operationId": "listTenants", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["tenants"], "summary": "Register a tenant", "operationId": "registerTenant", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/tenants/{id}": {"get": {"tags": ["tenants"], "summary": "Get a tenant", "operationId": "getTenant", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/tenants/{id}/room": {"put": {"tags": ["tenants"], "summary": "Move a tenant to another room", "operationId": "moveTenantRoom", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"}], "responses": {"200": {"description": "OK"}}}},
        "/tenants/{id}/status": {"put": {"tags": ["tenants"], "summary": "Change a tenant's status", "operationId": "changeTenantStatus", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"}], "responses": {"200": {"description": "OK"}}}},
        "/tenants/{id}/deposit": {"put": {"tags": ["tenants"], "summary": "Record deposit paid or adjusted", "operationId": "updateTenantDeposit", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"}], "responses": {"200": {"description": "OK"}}}},
        "/electricity/readings": {"put": {"tags": ["electricity"], "summary": "Record room meter readings", "operationId": "updateElectricityReadings", "responses": {"200": {"description": "OK"}}}},
        "/bills/generate": {"post": {"tags": ["bills"], "summary": "Generate monthly bills", "operationId": "generateBills", "responses": {"200": {"description": "OK"}, "422": {"description": "No active tenants"}}}},
        "/bills/overdue-sweep": {"post": {"tags": ["bills"], "summary": "Mark past-due bills overdue", "operationId": "sweepOverdueBills", "parameters": [{"name": "as_of", "in": "query", "type": "string", "format": "date"}], "responses": {"200": {"description": "OK"}}}},
        "/bills": {
            "get": {"tags": ["bills"], "summary": "List bills", "operationId": "listBills", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["bills"], "summary": "Clear a billing month", "operationId": "clearBillingMonth", "parameters": [{"name": "billing_month", "in": "query", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}
        },
        "/bills/{id}": {"get": {"tags": ["bills"], "summary": "Get a bill with its payments", "operationId": "getBill", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/payments": {
            "get": {"tags": ["payments"], "summary": "List payments", "operationId": "listPayments", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["payments"], "summary": "Record a payment", "operationId": "recordPayment", "parameters": [{"name": "Idempotency-Key", "in": "header", "type": "string"}], "responses": {"201": {"description": "Created"}, "409": {"description": "Duplicate request"}}}
        },
        "/payments/{id}": {
            "get": {"tags": ["payments"], "summary": "Get a payment", "operationId": "getPayment", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["payments"], "summary": "Edit a payment", "operationId": "updatePayment", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["payments"], "summary": "Delete a payment", "operationId": "deletePayment", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"}], "responses": {"200": {"description": "OK"}}}
        },
        "/billing/stats": {"get": {"tags": ["billing"], "summary": "Billing and collection statistics", "operationId": "getBillingStats", "parameters": [{"name": "billing_month", "in": "query", "type": "string"}], "responses": {"200": {"description": "OK"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "PG Ledger API",
	Description:      "Tenant registry, monthly bill generation and payment ledger for a paying-guest residency",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
