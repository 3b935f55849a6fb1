package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/assetiq/internal/domain"
)

// --- Register Asset ---

type RegisterAssetInput struct {
	Body struct {
		TenantID      string `json:"tenant_id,omitempty" doc:"Owning tenant; defaults to the caller's"`
		Code          string `json:"code,omitempty" maxLength:"100" doc:"Asset tag; generated when omitted"`
		Name          string `json:"name" minLength:"1" maxLength:"255"`
		Category      string `json:"category,omitempty"`
		Brand         string `json:"brand,omitempty"`
		Model         string `json:"model,omitempty"`
		Status        string `json:"status,omitempty" enum:"AVAILABLE,IN_USE,MAINTENANCE,RETIRED,DISPOSED"`
		PurchasePrice Money  `json:"purchase_price,omitempty"`
		Notes         string `json:"notes,omitempty"`
	}
}

type AssetOutput struct {
	Body AssetResponse
}

type AssetPathInput struct {
	ID string `path:"id" doc:"Asset ID"`
}

type AssetsOutput struct {
	Body []AssetResponse
}

type ComponentsOutput struct {
	Body []ComponentResponse
}

// --- Plans ---

type CreatePlanInput struct {
	Body struct {
		AssetID     string            `json:"asset_id" minLength:"1" doc:"Asset to decompose"`
		Description string            `json:"description,omitempty"`
		Items       []PlannedItemBody `json:"items" minItems:"1" doc:"Parts to extract"`
	}
}

type PlanOutput struct {
	Body PlanResponse
}

type PlanPathInput struct {
	ID string `path:"id" doc:"Decomposition request ID"`
}

type ListPlansInput struct {
	TenantID string `query:"tenant_id" required:"false" doc:"Tenant filter (cross-tenant callers only)"`
	AssetID  string `query:"asset_id" required:"false" doc:"Filter by asset"`
	Status   string `query:"status" required:"false" enum:"PENDING,COMPLETED" doc:"Filter by status"`
	Limit    int    `query:"limit" required:"false" default:"50" minimum:"0" doc:"Max results"`
	Offset   int    `query:"offset" required:"false" default:"0" minimum:"0" doc:"Pagination offset"`
}

type PlansOutput struct {
	Body []PlanResponse
}

type ExecutionOutput struct {
	Body ExecutionResponse
}

// --- Spare Parts ---

type SparePartPathInput struct {
	ID string `path:"id" doc:"Spare part ID"`
}

type ListSparePartsInput struct {
	TenantID string   `query:"tenant_id" required:"false" doc:"Tenant filter (cross-tenant callers only)"`
	Name     string   `query:"name" required:"false" doc:"Case-insensitive name fragment"`
	Request  string   `query:"request_id" required:"false" doc:"Filter by originating request"`
	Status   []string `query:"status" required:"false" enum:"pending,available,merged" doc:"Statuses to include; available only when omitted"`
	Limit    int      `query:"limit" required:"false" default:"50" minimum:"0" doc:"Max results"`
	Offset   int      `query:"offset" required:"false" default:"0" minimum:"0" doc:"Pagination offset"`
}

type SparePartOutput struct {
	Body SparePartResponse
}

type SparePartsOutput struct {
	Body []SparePartResponse
}

// Register adds all decomposition API routes to the Huma API.
func Register(api huma.API, svc domain.DecompositionService) {
	registerAssets(api, svc)
	registerPlans(api, svc)
	registerSpareParts(api, svc)
}

func registerAssets(api huma.API, svc domain.DecompositionService) {
	huma.Register(api, huma.Operation{
		OperationID:   "register-asset",
		Method:        http.MethodPost,
		Path:          "/api/v1/assets",
		Summary:       "Register an asset",
		Tags:          []string{"Assets"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *RegisterAssetInput) (*AssetOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		asset, err := svc.RegisterAsset(ctx, p, domain.NewAssetInput{
			TenantID:      input.Body.TenantID,
			Code:          input.Body.Code,
			Name:          input.Body.Name,
			Category:      input.Body.Category,
			Brand:         input.Body.Brand,
			Model:         input.Body.Model,
			Status:        domain.AssetStatus(input.Body.Status),
			PurchasePrice: input.Body.PurchasePrice.Decimal,
			Notes:         input.Body.Notes,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &AssetOutput{Body: toAssetResponse(asset)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-asset",
		Method:      http.MethodGet,
		Path:        "/api/v1/assets/{id}",
		Summary:     "Get an asset by ID",
		Tags:        []string{"Assets"},
	}, func(ctx context.Context, input *AssetPathInput) (*AssetOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		asset, err := svc.GetAsset(ctx, p, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &AssetOutput{Body: toAssetResponse(asset)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-compatible-assets",
		Method:      http.MethodGet,
		Path:        "/api/v1/assets/{id}/compatible",
		Summary:     "List assets that can receive parts from this asset",
		Tags:        []string{"Assets"},
	}, func(ctx context.Context, input *AssetPathInput) (*AssetsOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		assets, err := svc.ListCompatibleAssets(ctx, p, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &AssetsOutput{Body: toAssetResponses(assets)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-asset-components",
		Method:      http.MethodGet,
		Path:        "/api/v1/assets/{id}/components",
		Summary:     "List parts extracted from an asset",
		Tags:        []string{"Assets"},
	}, func(ctx context.Context, input *AssetPathInput) (*ComponentsOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		components, err := svc.ListComponents(ctx, p, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]ComponentResponse, len(components))
		for i, c := range components {
			resp[i] = toComponentResponse(c)
		}
		return &ComponentsOutput{Body: resp}, nil
	})
}

func registerPlans(api huma.API, svc domain.DecompositionService) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-decomposition",
		Method:        http.MethodPost,
		Path:          "/api/v1/decompositions",
		Summary:       "Plan the decomposition of an asset",
		Tags:          []string{"Decompositions"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreatePlanInput) (*PlanOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		items := make([]domain.PlannedItem, len(input.Body.Items))
		for i, item := range input.Body.Items {
			items[i] = item.toDomain()
		}
		plan, err := svc.CreatePlan(ctx, p, domain.CreatePlanInput{
			AssetID:     input.Body.AssetID,
			Description: input.Body.Description,
			Items:       items,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &PlanOutput{Body: toPlanResponse(plan.Request, plan.Parts)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-decomposition",
		Method:      http.MethodGet,
		Path:        "/api/v1/decompositions/{id}",
		Summary:     "Get a decomposition request with its parts",
		Tags:        []string{"Decompositions"},
	}, func(ctx context.Context, input *PlanPathInput) (*PlanOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		plan, err := svc.GetPlan(ctx, p, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &PlanOutput{Body: toPlanResponse(plan.Request, plan.Parts)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-decompositions",
		Method:      http.MethodGet,
		Path:        "/api/v1/decompositions",
		Summary:     "List decomposition requests",
		Tags:        []string{"Decompositions"},
	}, func(ctx context.Context, input *ListPlansInput) (*PlansOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		filter := domain.RequestFilter{
			TenantID: input.TenantID,
			AssetID:  input.AssetID,
			Limit:    input.Limit,
			Offset:   input.Offset,
		}
		if input.Status != "" {
			s := domain.RequestStatus(input.Status)
			filter.Status = &s
		}

		requests, err := svc.ListPlans(ctx, p, filter)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]PlanResponse, len(requests))
		for i, req := range requests {
			resp[i] = toPlanResponse(req, nil)
		}
		return &PlansOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "execute-decomposition",
		Method:      http.MethodPost,
		Path:        "/api/v1/decompositions/{id}/execute",
		Summary:     "Execute a pending decomposition",
		Description: "Converts the plan into catalog stock and component records and retires the asset, atomically. A request executes at most once.",
		Tags:        []string{"Decompositions"},
	}, func(ctx context.Context, input *PlanPathInput) (*ExecutionOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		result, err := svc.ExecutePlan(ctx, p, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ExecutionOutput{Body: toExecutionResponse(result)}, nil
	})
}

func registerSpareParts(api huma.API, svc domain.DecompositionService) {
	huma.Register(api, huma.Operation{
		OperationID: "get-spare-part",
		Method:      http.MethodGet,
		Path:        "/api/v1/spare-parts/{id}",
		Summary:     "Get a catalog entry by ID",
		Tags:        []string{"Spare Parts"},
	}, func(ctx context.Context, input *SparePartPathInput) (*SparePartOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		part, err := svc.GetSparePart(ctx, p, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &SparePartOutput{Body: toSparePartResponse(part)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-spare-parts",
		Method:      http.MethodGet,
		Path:        "/api/v1/spare-parts",
		Summary:     "List catalog entries",
		Tags:        []string{"Spare Parts"},
	}, func(ctx context.Context, input *ListSparePartsInput) (*SparePartsOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		filter := domain.SparePartFilter{
			TenantID:        input.TenantID,
			Name:            input.Name,
			OriginRequestID: input.Request,
			Limit:           input.Limit,
			Offset:          input.Offset,
		}
		for _, s := range input.Status {
			filter.Statuses = append(filter.Statuses, domain.PartStatus(s))
		}

		parts, err := svc.ListSpareParts(ctx, p, filter)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &SparePartsOutput{Body: toSparePartResponses(parts)}, nil
	})
}

// ErrorResponse is huma's problem+json body plus the error kind, a stable
// identifier clients can branch on instead of parsing detail.
type ErrorResponse struct {
	huma.ErrorModel
	Kind string `json:"kind" doc:"Stable error kind" example:"invalid_asset_state"`
}

func problem(status int, kind domain.ErrorKind, detail string) *ErrorResponse {
	return &ErrorResponse{
		ErrorModel: huma.ErrorModel{Title: http.StatusText(status), Status: status, Detail: detail},
		Kind:       string(kind),
	}
}

func init() {
	huma.NewError = newHumaError
}

// newHumaError replaces huma's default error constructor so request
// validation failures carry a kind as well.
func newHumaError(status int, msg string, errs ...error) huma.StatusError {
	e := problem(status, kindForStatus(status), msg)
	for _, err := range errs {
		if err == nil {
			continue
		}
		if d, ok := err.(huma.ErrorDetailer); ok {
			e.Errors = append(e.Errors, d.ErrorDetail())
			continue
		}
		e.Errors = append(e.Errors, &huma.ErrorDetail{Message: err.Error()})
	}
	return e
}

func kindForStatus(status int) domain.ErrorKind {
	switch {
	case status == http.StatusUnauthorized:
		return domain.KindUnauthenticated
	case status == http.StatusForbidden:
		return domain.KindPermissionDenied
	case status == http.StatusNotFound:
		return domain.KindNotFound
	case status < http.StatusInternalServerError:
		return domain.KindValidation
	}
	return domain.KindInternal
}

// toHumaError translates domain errors to problem responses carrying their
// kind.
func toHumaError(err error) error {
	kind := domain.KindOf(err)
	switch kind {
	case domain.KindValidation, domain.KindInvalidAssetState, domain.KindNoItems:
		return problem(http.StatusUnprocessableEntity, kind, err.Error())
	case domain.KindNotFound:
		return problem(http.StatusNotFound, kind, err.Error())
	case domain.KindUnauthenticated:
		return problem(http.StatusUnauthorized, kind, "authentication required")
	case domain.KindPermissionDenied:
		return problem(http.StatusForbidden, kind, "permission denied")
	case domain.KindAlreadyExecuted:
		return problem(http.StatusConflict, kind, domain.ErrAlreadyExecuted.Error())
	case domain.KindInvalidTransition:
		return problem(http.StatusConflict, kind, err.Error())
	case domain.KindTransactionFailure:
		return problem(http.StatusInternalServerError, kind, "decomposition failed; no changes were applied")
	}
	return problem(http.StatusInternalServerError, domain.KindInternal, "internal server error")
}
