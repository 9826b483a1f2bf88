package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestUser(t *testing.T) {
	Convey("Methods work as expected", t, func() {
		user := new(User)
		Convey("Setting and verify password works correctly with hashes", func() {
			user.SetPassword([]byte("hello123"))
			So(user.Password, ShouldStartWith, "$")

			So(user.VerifyPassword([]byte("hello123")), ShouldBeNil)
			So(user.VerifyPassword([]byte("hello12")), ShouldNotBeNil)
		})

		Convey("Invalid hash returns the correct error code", func() {
			user.Password = "I DON'T WORK"
			So(user.VerifyPassword([]byte("hello123")).Error(), ShouldContainSubstring, "hashedSecret too short")
		})
	})
}

func TestJWTGeneration(t *testing.T) {
	Convey("test basic claim creation", t, func() {
		ts, err := newJWT("hello test")
		So(ts, ShouldNotBeNil)
		So(err, ShouldBeNil)
	})
}

func TestLogin(t *testing.T) {
	// unique per run so the email unique index never collides
	email := fmt.Sprintf("login-%d@test.case", time.Now().UnixNano())

	user := &User{
		Email: email,
	}
	user.SetPassword([]byte("testing123"))
	if err := ENV.DB.Save(user); err != nil {
		t.Fatal(err)
	}

	login := func(lp *LoginPayload) *httptest.ResponseRecorder {
		body, _ := json.Marshal(lp)

		req := httptest.NewRequest("POST", "/api/login", bytes.NewBuffer(body))
		req.Header.Add("Content-Type", "application/json")

		rr := httptest.NewRecorder()
		http.HandlerFunc(Login).ServeHTTP(rr, req)
		return rr
	}

	Convey("Valid request works as expected", t, func() {
		rr := login(&LoginPayload{
			Email:    email,
			Password: "testing123",
		})

		So(rr.Code, ShouldEqual, http.StatusOK)
		So(rr.Body.String(), ShouldContainSubstring, `"token":`)
	})

	Convey("Invalid credentials return error", t, func() {
		Convey("Incorrect username provides 404", func() {
			rr := login(&LoginPayload{
				Email:    "login-no@test.case",
				Password: "testing123",
			})

			So(rr.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Incorrect password provides 403", func() {
			rr := login(&LoginPayload{
				Email:    email,
				Password: "testing12",
			})

			So(rr.Code, ShouldEqual, http.StatusForbidden)
		})
	})
}

func TestValidateJWT(t *testing.T) {
	protected := ValidateJWT(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	Convey("With a valid token", t, func() {
		ts, err := newJWT("validate@test.case")
		So(err, ShouldBeNil)

		Convey("the bearer header is accepted", func() {
			req := httptest.NewRequest("GET", "/api/device/state", nil)
			req.Header.Set("Authorization", "Bearer "+ts)

			rr := httptest.NewRecorder()
			protected.ServeHTTP(rr, req)
			So(rr.Code, ShouldEqual, http.StatusOK)
		})

		Convey("the query param is accepted", func() {
			req := httptest.NewRequest("GET", "/api/device/ws?jwt="+ts, nil)

			rr := httptest.NewRecorder()
			protected.ServeHTTP(rr, req)
			So(rr.Code, ShouldEqual, http.StatusOK)
		})
	})

	Convey("Missing tokens are rejected", t, func() {
		req := httptest.NewRequest("GET", "/api/device/state", nil)

		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)
		So(rr.Code, ShouldEqual, http.StatusUnauthorized)
	})

	Convey("Garbage tokens are rejected", t, func() {
		req := httptest.NewRequest("GET", "/api/device/state", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")

		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)
		So(rr.Code, ShouldEqual, http.StatusUnauthorized)
	})
}
