package util_test

import (
	"testing"
	"time"

	"github.com/harshaislive/bespoke/internal/model"
	"github.com/harshaislive/bespoke/internal/util"
)

func testUser() *model.User {
	u := &model.User{
		Name:  "Asha",
		Email: "asha@beforest.co",
		Role:  model.Employee,
	}
	u.ID = "user-1"
	return u
}

func TestJWTRoundTrip(t *testing.T) {
	token, err := util.GenerateJWT(testUser(), "secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	claims, err := util.ParseJWT(token, "secret")
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != "user-1" || claims.Email != "asha@beforest.co" || claims.Role != model.Employee {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestJWTWrongSecret(t *testing.T) {
	token, err := util.GenerateJWT(testUser(), "secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := util.ParseJWT(token, "other-secret"); err == nil {
		t.Fatal("expected parse failure with wrong secret")
	}
}

func TestJWTExpired(t *testing.T) {
	token, err := util.GenerateJWT(testUser(), "secret", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := util.ParseJWT(token, "secret"); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}
