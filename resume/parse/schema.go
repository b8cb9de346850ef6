package parse

// replySchema only pins container and scalar types of the fields the document
// renders, so the typed decode cannot fail halfway through. The analysis block and
// resume.skills are left open; model.Text and model.TextList flatten them.
// Unknown keys are allowed and every field may be null or absent.
const replySchema = `{
  "$defs": {
    "text": {"type": ["string", "null"]},
    "scalar": {"type": ["string", "number", "boolean", "null"]},
    "textList": {"type": ["array", "null"], "items": {"type": ["string", "null"]}},
    "experience": {
      "type": ["object", "null"],
      "properties": {
        "company": {"$ref": "#/$defs/text"},
        "location": {"$ref": "#/$defs/text"},
        "title": {"$ref": "#/$defs/text"},
        "start_date": {"$ref": "#/$defs/text"},
        "end_date": {"$ref": "#/$defs/text"},
        "bullets": {"$ref": "#/$defs/textList"}
      }
    },
    "education": {
      "type": ["object", "null"],
      "properties": {
        "degree": {"$ref": "#/$defs/text"},
        "field": {"$ref": "#/$defs/text"},
        "university": {"$ref": "#/$defs/text"},
        "location": {"$ref": "#/$defs/text"},
        "graduation_date": {"$ref": "#/$defs/text"},
        "gpa": {"$ref": "#/$defs/scalar"},
        "coursework": {"$ref": "#/$defs/textList"}
      }
    }
  },
  "type": "object",
  "properties": {
    "analysis": {"type": ["object", "null"]},
    "resume": {
      "type": ["object", "null"],
      "properties": {
        "name": {"$ref": "#/$defs/text"},
        "contact": {
          "type": ["object", "null"],
          "properties": {
            "email": {"$ref": "#/$defs/text"},
            "phone": {"$ref": "#/$defs/text"},
            "location": {"$ref": "#/$defs/text"},
            "linkedin": {"$ref": "#/$defs/text"}
          }
        },
        "professional_summary": {"$ref": "#/$defs/text"},
        "core_competencies": {
          "type": ["object", "null"],
          "additionalProperties": {"$ref": "#/$defs/textList"}
        },
        "experience": {"type": ["array", "null"], "items": {"$ref": "#/$defs/experience"}},
        "education": {"type": ["array", "null"], "items": {"$ref": "#/$defs/education"}},
        "certifications": {"$ref": "#/$defs/textList"}
      }
    }
  }
}`
