package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealerflowpro/dealerflow-client/internal/models"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return New(srv.URL, 5*time.Second), srv
}

func TestClient_Login(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantToken string
		wantErr   string
	}{
		{
			name:      "success",
			status:    http.StatusOK,
			body:      `{"success":true,"token":"abc","user":{"id":1,"dealership_name":"ABC Motors"}}`,
			wantToken: "abc",
		},
		{
			name:    "invalid credentials",
			status:  http.StatusOK,
			body:    `{"success":false,"error":"Invalid email or password"}`,
			wantErr: "Invalid email or password",
		},
		{
			name:    "missing token in response",
			status:  http.StatusOK,
			body:    `{"success":true,"user":{"id":1}}`,
			wantErr: "auth response without token or user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/api/auth/login", r.URL.Path)

				var req Credentials
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "demo@dealer.test", req.Email)

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			defer srv.Close()

			res, err := client.Login(context.Background(), Credentials{
				Email:    "demo@dealer.test",
				Password: "hunter2",
			})

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, res)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, res.Token)
			assert.Equal(t, "ABC Motors", res.User.DealershipName)
		})
	}
}

func TestClient_Login_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	client := New(srv.URL, time.Second)
	_, err := client.Login(context.Background(), Credentials{Email: "a@b.c", Password: "secret1"})

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	var srvErr *ServerError
	assert.False(t, errors.As(err, &srvErr), "transport failure must not look like a server response")
}

func TestClient_Profile_Unauthorized(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer stale-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
	})
	defer srv.Close()

	_, err := client.Profile(context.Background(), "stale-token")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestClient_Profile_WithSubscription(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"user":{"id":7,"dealership_name":"ABC Motors"},` +
			`"subscription":{"plan":"starter","status":"active"}}`))
	})
	defer srv.Close()

	res, err := client.Profile(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, 7, res.User.ID)
	require.NotNil(t, res.Subscription)
	assert.Equal(t, models.PlanStarter, res.Subscription.Plan)
}

func TestClient_GenerateBulkContent_UpgradeRequired(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"success":false,"upgrade_required":true,"error":"Upgrade needed"}`))
	})
	defer srv.Close()

	posts, err := client.GenerateBulkContent(context.Background(), "tok", "vehicle_showcase", "suv", []string{"facebook"})

	require.Error(t, err)
	var upgradeErr *UpgradeRequiredError
	require.ErrorAs(t, err, &upgradeErr)
	assert.Equal(t, "Upgrade needed", upgradeErr.Message)
	assert.Nil(t, posts)
}

func TestClient_GenerateBulkContent_Success(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "vehicle_showcase", body["content_type"])

		_, _ = w.Write([]byte(`{"success":true,"content":[` +
			`{"platform":"facebook","content":"Check out this SUV!","hashtags":["#suv"],"character_count":19},` +
			`{"platform":"instagram","content":"New arrival","character_count":11}]}`))
	})
	defer srv.Close()

	posts, err := client.GenerateBulkContent(context.Background(), "tok", "vehicle_showcase", "suv", []string{"facebook", "instagram"})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "facebook", posts[0].Platform)
	assert.Equal(t, []string{"#suv"}, posts[0].Hashtags)
}

func TestClient_Logout_EmptyBody(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	defer srv.Close()

	assert.NoError(t, client.Logout(context.Background(), "tok"))
}

func TestClient_Plans(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"), "plan catalog must not require auth")
		_, _ = w.Write([]byte(`{"success":true,"plans":{` +
			`"starter":{"name":"Starter","price":99,"features":{"max_posts_per_month":50,"platforms":["facebook","instagram","tiktok"]}},` +
			`"enterprise":{"name":"Enterprise","price":499,"recommended":true,"features":{"max_posts_per_month":-1,"platforms":["facebook","instagram","tiktok","reddit","x","youtube"]}}}}`))
	})
	defer srv.Close()

	plans, err := client.Plans(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, 99.0, plans["starter"].Price)
	assert.True(t, plans["enterprise"].Recommended)
	assert.Equal(t, -1, plans["enterprise"].Features.MaxPostsPerMonth)
}

func TestClient_UploadImages(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(10<<20))
		assert.Equal(t, "1", r.FormValue("dealership_id"))
		assert.Equal(t, "2021", r.FormValue("year"))
		assert.Equal(t, "Toyota", r.FormValue("make"))
		require.Len(t, r.MultipartForm.File["images"], 2)

		_, _ = w.Write([]byte(`{"success":true,"images":[` +
			`{"id":"img-1","name":"front.jpg","url":"/api/images/img-1/file"},` +
			`{"id":"img-2","name":"rear.jpg","url":"/api/images/img-2/file"}]}`))
	})
	defer srv.Close()

	images, err := client.UploadImages(context.Background(), "tok", "1",
		VehicleMeta{Year: "2021", Make: "Toyota", Model: "RAV4"},
		[]ImageFile{
			{Name: "front.jpg", Data: []byte("jpegdata")},
			{Name: "rear.jpg", Data: []byte("jpegdata2")},
		})

	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, "img-1", images[0].ID)
}

func TestClient_SetupScraping(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://abcmotors.example", body["website_url"])

		_, _ = w.Write([]byte(`{"success":true,"website_url":"https://abcmotors.example",` +
			`"platform_detected":"dealer.com","message":"Scraping configured"}`))
	})
	defer srv.Close()

	res, err := client.SetupScraping(context.Background(), "tok", "https://abcmotors.example")
	require.NoError(t, err)
	assert.Equal(t, "dealer.com", res.DetectedPlatform)
	assert.Equal(t, "Scraping configured", res.Message)
}
