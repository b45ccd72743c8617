package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// doJSON sends an authenticated JSON request and returns the response.
func doJSON(t *testing.T, client *http.Client, method, url, token string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func createProduct(t *testing.T, client *http.Client, baseURL string, name string, quantity int) int64 {
	t.Helper()
	resp := doJSON(t, client, http.MethodPost, baseURL+"/products/addProduct", "", map[string]any{
		"name":               name,
		"mrp_price":          120.0,
		"sale_price":         99.5,
		"price_unit":         "per item",
		"shipping_info":      "Ships in 3 days",
		"sample_requirement": "None",
		"long_description":   "A test product.",
		"features":           []string{"durable", "lightweight"},
		"available_quantity": quantity,
	})
	defer resp.Body.Close()
	var env envelope
	body := decodeJSON(t, resp, &env)
	require.Equal(t, http.StatusOK, resp.StatusCode, "addProduct must return 200; body: %s", body)
	var product struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &product))
	require.NotZero(t, product.ID)
	return product.ID
}

// cartOf fetches the user's cart lines.
func cartOf(t *testing.T, client *http.Client, baseURL, token string) []struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity"`
	Product  struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"product"`
} {
	t.Helper()
	resp := doJSON(t, client, http.MethodGet, baseURL+"/cartItem/view", token, nil)
	defer resp.Body.Close()
	var env envelope
	body := decodeJSON(t, resp, &env)
	require.Equal(t, http.StatusOK, resp.StatusCode, "cart view must return 200; body: %s", body)
	var items []struct {
		ID       int64 `json:"id"`
		Quantity int   `json:"quantity"`
		Product  struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"product"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &items))
	return items
}

// TestShopE2E runs the complete flow: catalog, cart mutations with stock
// enforcement, member profiles and the activity audit trail.
func TestShopE2E(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set; skipping E2E test")
	}

	ts := newTestServer(t)
	baseURL := ts.BaseURL()
	client := ts.Server.Client()

	ts.Truncate(t)
	grant := obtainGrant(t, client, baseURL, "10.0.2.2", "5550001000")
	token := grant.AccessToken

	t.Run("A_Products", func(t *testing.T) {
		createProduct(t, client, baseURL, "Steel Bottle", 5)
		createProduct(t, client, baseURL, "Canvas Bag", 2)

		resp, err := client.Get(baseURL + "/products/viewProduct")
		require.NoError(t, err)
		defer resp.Body.Close()
		var env envelope
		body := decodeJSON(t, resp, &env)
		require.Equal(t, http.StatusOK, resp.StatusCode, "viewProduct must return 200; body: %s", body)
		var products []struct {
			Name              string   `json:"name"`
			Features          []string `json:"features"`
			AvailableQuantity int      `json:"available_quantity"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &products))
		require.Len(t, products, 2)
		assert.Equal(t, []string{"durable", "lightweight"}, products[0].Features)
	})

	t.Run("B_CartAdd", func(t *testing.T) {
		productID := createProduct(t, client, baseURL, "Desk Lamp", 4)

		resp := doJSON(t, client, http.MethodPost, baseURL+"/cartItem/add", token, map[string]any{
			"product_id": productID, "quantity": 2,
		})
		var env envelope
		body := decodeJSON(t, resp, &env)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, "cart add must return 200; body: %s", body)
		assert.Equal(t, "Item added to cart successfully", env.Message)

		// Adding the same product merges into the existing line
		resp2 := doJSON(t, client, http.MethodPost, baseURL+"/cartItem/add", token, map[string]any{
			"product_id": productID, "quantity": 1,
		})
		readBody(resp2)
		resp2.Body.Close()
		require.Equal(t, http.StatusOK, resp2.StatusCode)

		items := cartOf(t, client, baseURL, token)
		found := false
		for _, item := range items {
			if item.Product.ID == productID {
				found = true
				assert.Equal(t, 3, item.Quantity, "quantities must merge into one line")
			}
		}
		assert.True(t, found, "added product must appear in the cart")
	})

	t.Run("B2_CartAdd_StockLimits", func(t *testing.T) {
		productID := createProduct(t, client, baseURL, "Rare Print", 1)

		// Asking for more than stock up front
		resp := doJSON(t, client, http.MethodPost, baseURL+"/cartItem/add", token, map[string]any{
			"product_id": productID, "quantity": 5,
		})
		var env envelope
		decodeJSON(t, resp, &env)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Requested quantity exceeds stock", env.Message)

		// Merging past stock
		respOK := doJSON(t, client, http.MethodPost, baseURL+"/cartItem/add", token, map[string]any{
			"product_id": productID, "quantity": 1,
		})
		readBody(respOK)
		respOK.Body.Close()
		require.Equal(t, http.StatusOK, respOK.StatusCode)

		respMerge := doJSON(t, client, http.MethodPost, baseURL+"/cartItem/add", token, map[string]any{
			"product_id": productID, "quantity": 1,
		})
		var envMerge envelope
		decodeJSON(t, respMerge, &envMerge)
		respMerge.Body.Close()
		assert.Equal(t, http.StatusBadRequest, respMerge.StatusCode)
		assert.Equal(t, "Not enough stock to add more to cart", envMerge.Message)

		// Unknown product
		respMissing := doJSON(t, client, http.MethodPost, baseURL+"/cartItem/add", token, map[string]any{
			"product_id": 999999, "quantity": 1,
		})
		readBody(respMissing)
		respMissing.Body.Close()
		assert.Equal(t, http.StatusNotFound, respMissing.StatusCode)
	})

	t.Run("C_CartIncreaseDecrease", func(t *testing.T) {
		productID := createProduct(t, client, baseURL, "Tea Set", 2)
		resp := doJSON(t, client, http.MethodPost, baseURL+"/cartItem/add", token, map[string]any{
			"product_id": productID, "quantity": 1,
		})
		readBody(resp)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var lineID int64
		for _, item := range cartOf(t, client, baseURL, token) {
			if item.Product.ID == productID {
				lineID = item.ID
			}
		}
		require.NotZero(t, lineID)

		// 1 -> 2
		respInc := doJSON(t, client, http.MethodPatch, fmt.Sprintf("%s/cartItem/%d/increase", baseURL, lineID), token, nil)
		var envInc envelope
		decodeJSON(t, respInc, &envInc)
		respInc.Body.Close()
		require.Equal(t, http.StatusOK, respInc.StatusCode)
		var incData map[string]int
		require.NoError(t, json.Unmarshal(envInc.Data, &incData))
		assert.Equal(t, 2, incData["quantity"])

		// At stock ceiling
		respCap := doJSON(t, client, http.MethodPatch, fmt.Sprintf("%s/cartItem/%d/increase", baseURL, lineID), token, nil)
		var envCap envelope
		decodeJSON(t, respCap, &envCap)
		respCap.Body.Close()
		assert.Equal(t, http.StatusBadRequest, respCap.StatusCode)
		assert.Equal(t, "Cannot increase. Product out of stock.", envCap.Message)

		// 2 -> 1
		respDec := doJSON(t, client, http.MethodPatch, fmt.Sprintf("%s/cartItem/%d/decrease", baseURL, lineID), token, nil)
		var envDec envelope
		decodeJSON(t, respDec, &envDec)
		respDec.Body.Close()
		require.Equal(t, http.StatusOK, respDec.StatusCode)
		var decData map[string]int
		require.NoError(t, json.Unmarshal(envDec.Data, &decData))
		assert.Equal(t, 1, decData["quantity"])

		// Floor is 1
		respFloor := doJSON(t, client, http.MethodPatch, fmt.Sprintf("%s/cartItem/%d/decrease", baseURL, lineID), token, nil)
		var envFloor envelope
		decodeJSON(t, respFloor, &envFloor)
		respFloor.Body.Close()
		assert.Equal(t, http.StatusBadRequest, respFloor.StatusCode)
		assert.Equal(t, "Quantity cannot be less than 1", envFloor.Message)
	})

	t.Run("C2_CartUpdateAndDelete", func(t *testing.T) {
		productID := createProduct(t, client, baseURL, "Bookend", 10)
		resp := doJSON(t, client, http.MethodPost, baseURL+"/cartItem/add", token, map[string]any{
			"product_id": productID, "quantity": 1,
		})
		readBody(resp)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var lineID int64
		for _, item := range cartOf(t, client, baseURL, token) {
			if item.Product.ID == productID {
				lineID = item.ID
			}
		}
		require.NotZero(t, lineID)

		respUpd := doJSON(t, client, http.MethodPut, fmt.Sprintf("%s/cartItem/update/%d", baseURL, lineID), token,
			map[string]int{"quantity": 7})
		readBody(respUpd)
		respUpd.Body.Close()
		require.Equal(t, http.StatusOK, respUpd.StatusCode)

		for _, item := range cartOf(t, client, baseURL, token) {
			if item.ID == lineID {
				assert.Equal(t, 7, item.Quantity)
			}
		}

		// Beyond stock
		respOver := doJSON(t, client, http.MethodPut, fmt.Sprintf("%s/cartItem/update/%d", baseURL, lineID), token,
			map[string]int{"quantity": 11})
		var envOver envelope
		decodeJSON(t, respOver, &envOver)
		respOver.Body.Close()
		assert.Equal(t, http.StatusBadRequest, respOver.StatusCode)
		assert.Equal(t, "Requested quantity exceeds available stock", envOver.Message)

		// Zero removes the line
		respZero := doJSON(t, client, http.MethodPut, fmt.Sprintf("%s/cartItem/update/%d", baseURL, lineID), token,
			map[string]int{"quantity": 0})
		readBody(respZero)
		respZero.Body.Close()
		require.Equal(t, http.StatusOK, respZero.StatusCode)

		for _, item := range cartOf(t, client, baseURL, token) {
			assert.NotEqual(t, lineID, item.ID, "line updated to zero must be removed")
		}

		// Deleting a line that belongs to the user
		otherID := createProduct(t, client, baseURL, "Coaster", 3)
		respAdd := doJSON(t, client, http.MethodPost, baseURL+"/cartItem/add", token, map[string]any{
			"product_id": otherID, "quantity": 1,
		})
		readBody(respAdd)
		respAdd.Body.Close()
		require.Equal(t, http.StatusOK, respAdd.StatusCode)
		var otherLine int64
		for _, item := range cartOf(t, client, baseURL, token) {
			if item.Product.ID == otherID {
				otherLine = item.ID
			}
		}
		require.NotZero(t, otherLine)

		respDel := doJSON(t, client, http.MethodDelete, fmt.Sprintf("%s/cartItem/delete/%d", baseURL, otherLine), token, nil)
		readBody(respDel)
		respDel.Body.Close()
		assert.Equal(t, http.StatusOK, respDel.StatusCode)
	})

	t.Run("C3_CartClear", func(t *testing.T) {
		productID := createProduct(t, client, baseURL, "Notepad", 9)
		resp := doJSON(t, client, http.MethodPost, baseURL+"/cartItem/add", token, map[string]any{
			"product_id": productID, "quantity": 2,
		})
		readBody(resp)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NotEmpty(t, cartOf(t, client, baseURL, token))

		respClear := doJSON(t, client, http.MethodDelete, baseURL+"/cartItem/clear", token, nil)
		readBody(respClear)
		respClear.Body.Close()
		require.Equal(t, http.StatusOK, respClear.StatusCode)

		assert.Empty(t, cartOf(t, client, baseURL, token), "cart must be empty after clear")
	})

	t.Run("D_Members", func(t *testing.T) {
		resp := doJSON(t, client, http.MethodPost, baseURL+"/member/save", token, map[string]any{
			"name": "Ravi", "relation": "brother",
		})
		var env envelope
		decodeJSON(t, resp, &env)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Member save successfully.", env.Message)

		respList := doJSON(t, client, http.MethodGet, baseURL+"/member/list", token, nil)
		var envList envelope
		decodeJSON(t, respList, &envList)
		respList.Body.Close()
		require.Equal(t, http.StatusOK, respList.StatusCode)
		var members []struct {
			MemberID int64  `json:"member_id"`
			Name     string `json:"name"`
			Relation string `json:"relation"`
		}
		require.NoError(t, json.Unmarshal(envList.Data, &members))
		require.Len(t, members, 1)
		assert.Equal(t, "Ravi", members[0].Name)

		// Edit via member_id
		respEdit := doJSON(t, client, http.MethodPost, baseURL+"/member/save", token, map[string]any{
			"member_id": members[0].MemberID, "name": "Ravi K", "relation": "brother",
		})
		readBody(respEdit)
		respEdit.Body.Close()
		require.Equal(t, http.StatusOK, respEdit.StatusCode)

		// Editing a member that does not exist
		respMissing := doJSON(t, client, http.MethodPost, baseURL+"/member/save", token, map[string]any{
			"member_id": 999999, "name": "Nobody", "relation": "none",
		})
		var envMissing envelope
		decodeJSON(t, respMissing, &envMissing)
		respMissing.Body.Close()
		assert.Equal(t, http.StatusNotFound, respMissing.StatusCode)
		assert.Equal(t, "Member not found for editing", envMissing.Message)
	})

	t.Run("E_AuditTrail", func(t *testing.T) {
		resp := doJSON(t, client, http.MethodGet, baseURL+"/audit/my-activity", token, nil)
		var env envelope
		body := decodeJSON(t, resp, &env)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, "my-activity must return 200; body: %s", body)

		var activity struct {
			UserID    int64  `json:"user_id"`
			Username  string `json:"username"`
			TotalLogs int    `json:"total_logs"`
			Logs      []struct {
				Action     string `json:"action"`
				EntityType string `json:"entity_type"`
			} `json:"logs"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &activity))
		assert.Equal(t, grant.UserID, activity.UserID)
		require.NotZero(t, activity.TotalLogs, "cart mutations must leave an audit trail")

		actions := make(map[string]bool)
		for _, entry := range activity.Logs {
			assert.Equal(t, "cart_item", entry.EntityType)
			actions[entry.Action] = true
		}
		for _, expected := range []string{"add_to_cart", "update_cart_item", "increase_quantity", "decrease_quantity", "remove_from_cart", "clear_cart"} {
			assert.True(t, actions[expected], "audit trail must contain %s", expected)
		}
	})

	t.Run("F_CartRequiresAuth", func(t *testing.T) {
		resp := doJSON(t, client, http.MethodGet, baseURL+"/cartItem/view", "", nil)
		readBody(resp)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "cart view without a token must return 401")
	})
}
