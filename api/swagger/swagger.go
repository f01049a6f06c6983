package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable API",
        "description": "Timetable generation, substitute assignment, and scheduling analytics",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {
                        "description": "Ready"
                    }
                }
            }
        },
        "/timetable/generate": {
            "post": {
                "summary": "Generate a new timetable version",
                "responses": {
                    "200": {
                        "description": "Version generated synchronously"
                    },
                    "202": {
                        "description": "Generation enqueued"
                    }
                }
            }
        },
        "/substitutions/auto-assign": {
            "post": {
                "summary": "Auto-assign a substitute for an absent teacher's classes",
                "responses": {
                    "200": {
                        "description": "Assignment report"
                    }
                }
            }
        },
        "/substitutions/suggestions": {
            "get": {
                "summary": "Ranked substitute suggestions for a timetable entry",
                "responses": {
                    "200": {
                        "description": "Ranked candidates"
                    }
                }
            }
        },
        "/substitutions/assign": {
            "post": {
                "summary": "Manually assign a substitute to a timetable entry",
                "responses": {
                    "200": {
                        "description": "Substitution recorded"
                    }
                }
            }
        },
        "/substitutions/cancel": {
            "post": {
                "summary": "Cancel a class instead of substituting",
                "responses": {
                    "200": {
                        "description": "Cancellation recorded"
                    }
                }
            }
        },
        "/schedule-config": {
            "get": {
                "summary": "Fetch the active schedule configuration",
                "responses": {
                    "200": {
                        "description": "Schedule configuration"
                    }
                }
            },
            "put": {
                "summary": "Replace the schedule configuration and trigger a regeneration",
                "responses": {
                    "200": {
                        "description": "Configuration updated"
                    }
                }
            }
        },
        "/analytics": {
            "get": {
                "summary": "Utilization and conflict report for a version (defaults to the latest)",
                "responses": {
                    "200": {
                        "description": "Analytics report"
                    }
                }
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
