package validation

const intentRequestSchema = `{
  "type": "object",
  "properties": {
    "text": {"type": "string"},
    "sessionId": {"type": "string", "maxLength": 256},
    "conversationHistory": {
      "type": "array",
      "maxItems": 100,
      "items": {
        "type": "object",
        "required": ["role"],
        "properties": {
          "role": {"enum": ["user", "assistant"]},
          "content": {"type": "string"},
          "extractedParams": {"type": ["object", "null"]}
        }
      }
    }
  },
  "required": ["text"]
}`

const addProcedureSchema = `{
  "type": "object",
  "properties": {
    "doctorName": {"type": "string", "minLength": 1},
    "procedureCode": {"type": "string", "minLength": 1},
    "procedureName": {"type": ["string", "null"]},
    "cost": {
      "oneOf": [
        {"type": "number", "minimum": 0},
        {"type": "string", "pattern": "^\\s*[0-9]+(\\.[0-9]+)?\\s*$"}
      ]
    },
    "time": {"type": "string"},
    "confirmed": {"type": "boolean"}
  },
  "required": ["doctorName", "procedureCode", "cost"]
}`

var (
	IntentRequest       = MustCompile("intent-request", intentRequestSchema)
	AddProcedureRequest = MustCompile("add-procedure-request", addProcedureSchema)
)
