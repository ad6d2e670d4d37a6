package docs

import (
	"strings"
	"testing"
)

func TestSwaggerInfoRegistered(t *testing.T) {
	if SwaggerInfo == nil {
		t.Fatal("swagger info not initialized")
	}
	if SwaggerInfo.Title == "" {
		t.Fatal("swagger info missing title")
	}
}

func TestSwaggerDocListsSentimentRoutes(t *testing.T) {
	doc := SwaggerInfo.ReadDoc()
	for _, path := range []string{"/api/sentiment", "/api/explain", "/api/auth/google", "/api/users/profile", "/api/alerts", "/api/alerts/{id}"} {
		if !strings.Contains(doc, `"`+path+`"`) {
			t.Fatalf("swagger doc missing %s", path)
		}
	}
}
