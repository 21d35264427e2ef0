package issuer

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/coinagedev/coinage/common/logging"
	coinageerrors "github.com/coinagedev/coinage/issuer/errors"
)

// Handlers binds the service's operations to the HTTP surface. Routing,
// body decoding, and error rendering live here; policy lives in Service.
type Handlers struct {
	service *Service
	config  *Config
}

func NewHandlers(service *Service, config *Config) *Handlers {
	return &Handlers{service: service, config: config}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.GetLoggerFromContext(r.Context()).Error("Failed to encode response body", "error", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	coinageerrors.WriteHTTP(r.Context(), w, err, h.config.DetailedErrors)
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return coinageerrors.InvalidUserInputErrorf("request body exceeds %d bytes", maxErr.Limit)
		}
		return coinageerrors.InvalidArgumentMalformedField(fmt.Errorf("invalid request body: %w", err))
	}
	return nil
}

func (h *Handlers) CreateAsset(w http.ResponseWriter, r *http.Request) {
	var req CreateAssetRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Symbol == "" {
		h.writeError(w, r, coinageerrors.InvalidArgumentMissingField(fmt.Errorf("symbol is required")))
		return
	}
	if req.Name == "" {
		h.writeError(w, r, coinageerrors.InvalidArgumentMissingField(fmt.Errorf("name is required")))
		return
	}

	info, err := h.service.CreateAsset(r.Context(), CreateAssetParams{
		Symbol:      req.Symbol,
		Name:        req.Name,
		Description: req.Description,
		IconURL:     req.IconURL,
		Decimals:    req.Decimals,
		Freezable:   req.Freezable,
		MaxSupply:   req.MaxSupply,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, assetResponseFrom(info))
}

func (h *Handlers) ListAssets(w http.ResponseWriter, r *http.Request) {
	infos := h.service.Assets(r.Context())
	resp := AssetListResponse{Assets: make([]AssetResponse, 0, len(infos))}
	for _, info := range infos {
		resp.Assets = append(resp.Assets, assetResponseFrom(info))
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

func (h *Handlers) GetAsset(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Asset(r.Context(), r.PathValue("symbol"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, assetResponseFrom(info))
}

func (h *Handlers) Mint(w http.ResponseWriter, r *http.Request) {
	var req MintRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	receipt, err := h.service.Mint(r.Context(), r.PathValue("symbol"), req.Amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, MintResponse{
		UnitID:      receipt.UnitID.String(),
		Amount:      receipt.Amount,
		TotalSupply: receipt.TotalSupply,
	})
}

func (h *Handlers) Burn(w http.ResponseWriter, r *http.Request) {
	var req BurnRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	symbol := r.PathValue("symbol")

	switch {
	case req.UnitID != "" && req.Amount != 0:
		h.writeError(w, r, coinageerrors.InvalidArgumentMalformedField(
			fmt.Errorf("specify exactly one of unit_id and amount"),
		))
	case req.UnitID != "":
		unitID, err := uuid.Parse(req.UnitID)
		if err != nil {
			h.writeError(w, r, coinageerrors.InvalidArgumentMalformedField(
				fmt.Errorf("malformed unit_id: %w", err),
			))
			return
		}
		receipt, err := h.service.BurnUnit(ctx, symbol, unitID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.writeJSON(w, r, http.StatusOK, BurnResponse{Amount: receipt.Amount, TotalSupply: receipt.TotalSupply})
	case req.Amount != 0:
		receipt, err := h.service.BurnAmount(ctx, symbol, req.Amount)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.writeJSON(w, r, http.StatusOK, BurnResponse{Amount: receipt.Amount, TotalSupply: receipt.TotalSupply})
	default:
		h.writeError(w, r, coinageerrors.InvalidArgumentMissingField(
			fmt.Errorf("one of unit_id and amount is required"),
		))
	}
}

func (h *Handlers) Freeze(w http.ResponseWriter, r *http.Request) {
	var req FreezeRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	addr, err := parseAddress(req.Address)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	changed, err := h.service.Freeze(r.Context(), r.PathValue("symbol"), addr)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, FreezeResponse{Frozen: true, Changed: changed})
}

func (h *Handlers) Thaw(w http.ResponseWriter, r *http.Request) {
	var req FreezeRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	addr, err := parseAddress(req.Address)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.service.Thaw(r.Context(), r.PathValue("symbol"), addr); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, FreezeResponse{Frozen: false, Changed: true})
}

func (h *Handlers) FrozenAddresses(w http.ResponseWriter, r *http.Request) {
	addrs, err := h.service.FrozenAddresses(r.Context(), r.PathValue("symbol"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := FrozenListResponse{Addresses: make([]string, 0, len(addrs))}
	for _, addr := range addrs {
		resp.Addresses = append(resp.Addresses, addr.String())
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

func (h *Handlers) FrozenStatus(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress(r.PathValue("address"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	frozen, err := h.service.IsFrozen(r.Context(), r.PathValue("symbol"), addr)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, FrozenStatusResponse{Frozen: frozen})
}

func (h *Handlers) UpdateMetadata(w http.ResponseWriter, r *http.Request) {
	var req UpdateMetadataRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Field == "" {
		h.writeError(w, r, coinageerrors.InvalidArgumentMissingField(fmt.Errorf("field is required")))
		return
	}

	desc, err := h.service.UpdateMetadata(r.Context(), r.PathValue("symbol"), req.Field, req.Value)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, descriptorResponseFrom(desc))
}

func (h *Handlers) Audit(w http.ResponseWriter, r *http.Request) {
	report := h.service.Audit(r.Context())
	h.writeJSON(w, r, http.StatusOK, auditResponseFrom(report))
}
