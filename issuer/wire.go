package issuer

import "github.com/coinagedev/coinage/ledger"

// Wire types for the issuer's JSON API. The client package decodes into the
// same structs, so the two sides cannot drift.

type CreateAssetRequest struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IconURL     string `json:"icon_url,omitempty"`
	Decimals    uint8  `json:"decimals"`
	Freezable   bool   `json:"freezable"`
	MaxSupply   uint64 `json:"max_supply,omitempty"`
}

type AssetResponse struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IconURL     string `json:"icon_url,omitempty"`
	Decimals    uint8  `json:"decimals"`
	Freezable   bool   `json:"freezable"`
	MaxSupply   uint64 `json:"max_supply"`
	Identifier  string `json:"identifier"`
	TotalSupply uint64 `json:"total_supply"`
	Custodied   uint64 `json:"custodied"`
}

type AssetListResponse struct {
	Assets []AssetResponse `json:"assets"`
}

type MintRequest struct {
	Amount uint64 `json:"amount"`
}

type MintResponse struct {
	UnitID      string `json:"unit_id"`
	Amount      uint64 `json:"amount"`
	TotalSupply uint64 `json:"total_supply"`
}

// BurnRequest names exactly one of UnitID and Amount.
type BurnRequest struct {
	UnitID string `json:"unit_id,omitempty"`
	Amount uint64 `json:"amount,omitempty"`
}

type BurnResponse struct {
	Amount      uint64 `json:"amount"`
	TotalSupply uint64 `json:"total_supply"`
}

type FreezeRequest struct {
	Address string `json:"address"`
}

type FreezeResponse struct {
	Frozen  bool `json:"frozen"`
	Changed bool `json:"changed"`
}

type FrozenStatusResponse struct {
	Frozen bool `json:"frozen"`
}

type FrozenListResponse struct {
	Addresses []string `json:"addresses"`
}

type UpdateMetadataRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type DescriptorResponse struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IconURL     string `json:"icon_url,omitempty"`
	Decimals    uint8  `json:"decimals"`
	Freezable   bool   `json:"freezable"`
	MaxSupply   uint64 `json:"max_supply"`
	Identifier  string `json:"identifier"`
}

type AuditAssetResponse struct {
	Symbol      string `json:"symbol"`
	Identifier  string `json:"identifier"`
	TotalSupply uint64 `json:"total_supply"`
	Custodied   uint64 `json:"custodied"`
	Preissued   uint64 `json:"preissued"`
	Drift       uint64 `json:"drift"`
	Conserved   bool   `json:"conserved"`
}

type AuditResponse struct {
	Conserved  bool                 `json:"conserved"`
	TotalDrift uint64               `json:"total_drift"`
	Assets     []AuditAssetResponse `json:"assets"`
}

func assetResponseFrom(info ledger.Info) AssetResponse {
	return AssetResponse{
		Symbol:      info.Symbol,
		Name:        info.Name,
		Description: info.Description,
		IconURL:     info.IconURL,
		Decimals:    info.Decimals,
		Freezable:   info.Freezable,
		MaxSupply:   info.MaxSupply,
		Identifier:  info.Identifier.String(),
		TotalSupply: info.TotalSupply,
		Custodied:   info.Custodied,
	}
}

func descriptorResponseFrom(desc ledger.Descriptor) DescriptorResponse {
	return DescriptorResponse{
		Symbol:      desc.Symbol,
		Name:        desc.Name,
		Description: desc.Description,
		IconURL:     desc.IconURL,
		Decimals:    desc.Decimals,
		Freezable:   desc.Freezable,
		MaxSupply:   desc.MaxSupply,
		Identifier:  desc.Identifier.String(),
	}
}

func auditResponseFrom(report ledger.Report) AuditResponse {
	resp := AuditResponse{
		Conserved:  report.Conserved,
		TotalDrift: report.TotalDrift(),
		Assets:     make([]AuditAssetResponse, 0, len(report.Assets)),
	}
	for _, audit := range report.Assets {
		resp.Assets = append(resp.Assets, AuditAssetResponse{
			Symbol:      audit.Symbol,
			Identifier:  audit.Identifier.String(),
			TotalSupply: audit.TotalSupply,
			Custodied:   audit.Custodied,
			Preissued:   audit.Preissued,
			Drift:       audit.Drift,
			Conserved:   audit.Conserved,
		})
	}
	return resp
}
