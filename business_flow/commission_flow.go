package businessflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/amirphl/Maskan/app/dto"
	"github.com/amirphl/Maskan/models"
	"github.com/amirphl/Maskan/repository"
	"github.com/amirphl/Maskan/utils"
	"github.com/xuri/excelize/v2"
)

// maxExportRows caps a single spreadsheet export
const maxExportRows = 50000

// CommissionFlow exposes commission records and their payout status
type CommissionFlow interface {
	List(ctx context.Context, actor Actor, req *dto.ListCommissionsRequest) (*dto.ListCommissionsResponse, error)
	UpdateStatus(ctx context.Context, actor Actor, id uint, req *dto.UpdateCommissionStatusRequest, metadata *ClientMetadata) (*dto.CommissionDTO, error)
	Export(ctx context.Context, actor Actor, req *dto.ListCommissionsRequest) (string, []byte, error)
}

type CommissionFlowImpl struct {
	commissionRepo repository.CommissionRepository
	listingRepo    repository.ListingRepository
	userRepo       repository.UserRepository
	auditRepo      repository.AuditLogRepository
	txManager      repository.TxManager
	now            func() time.Time
}

func NewCommissionFlow(
	commissionRepo repository.CommissionRepository,
	listingRepo repository.ListingRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditLogRepository,
	txManager repository.TxManager,
) CommissionFlow {
	return &CommissionFlowImpl{
		commissionRepo: commissionRepo,
		listingRepo:    listingRepo,
		userRepo:       userRepo,
		auditRepo:      auditRepo,
		txManager:      txManager,
		now:            utils.UTCNow,
	}
}

func (f *CommissionFlowImpl) List(ctx context.Context, actor Actor, req *dto.ListCommissionsRequest) (*dto.ListCommissionsResponse, error) {
	if req == nil {
		req = &dto.ListCommissionsRequest{}
	}
	user, err := authorizeActor(ctx, f.userRepo, actor)
	if err != nil {
		return nil, err
	}

	filter, err := commissionFilterFor(user, req)
	if err != nil {
		return nil, err
	}

	page, pageSize, offset := req.Normalize()
	total, err := f.commissionRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("COMMISSION_LIST_FAILED", "Failed to count commissions", err)
	}
	totalAmount, err := f.commissionRepo.SumAmount(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("COMMISSION_LIST_FAILED", "Failed to total commissions", err)
	}
	rows, err := f.commissionRepo.ByFilter(ctx, filter, "created_at DESC", pageSize, offset)
	if err != nil {
		return nil, NewBusinessError("COMMISSION_LIST_FAILED", "Failed to list commissions", err)
	}

	items := make([]dto.CommissionDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, toCommissionDTO(row, user.IsAdmin()))
	}
	return &dto.ListCommissionsResponse{
		Items:       items,
		TotalAmount: totalAmount,
		PageInfo:    dto.PageInfo{Page: page, PageSize: pageSize, Total: total},
	}, nil
}

// UpdateStatus advances a commission exactly one step: PENDING to APPROVED to PAID
func (f *CommissionFlowImpl) UpdateStatus(ctx context.Context, actor Actor, id uint, req *dto.UpdateCommissionStatusRequest, metadata *ClientMetadata) (*dto.CommissionDTO, error) {
	if req == nil {
		return nil, NewBusinessError(CodeValidation, "request is required", nil)
	}
	target := models.CommissionStatus(req.Status)
	if !target.Valid() {
		return nil, NewBusinessErrorf(CodeValidation, "unknown status %q", ErrInvalidCommissionStatus, req.Status)
	}

	admin, err := authorizeAdmin(ctx, f.userRepo, actor)
	if err != nil {
		return nil, err
	}

	var (
		commission *models.Commission
		from       models.CommissionStatus
	)
	err = f.txManager.WithTx(ctx, func(txCtx context.Context) error {
		row, err := f.commissionRepo.ByID(txCtx, id)
		if err != nil {
			return err
		}
		if row == nil {
			return NewBusinessError(CodeNotFound, "Commission not found", ErrCommissionNotFound)
		}
		from = row.Status
		if !row.Advance(target, f.now()) {
			return NewBusinessErrorf(CodeValidation, "cannot move commission from %s to %s", ErrStatusTransitionNotAllowed, from, target)
		}
		if err := f.commissionRepo.UpdateStatus(txCtx, row); err != nil {
			return err
		}
		commission = row
		return nil
	})
	if err != nil {
		errMsg := err.Error()
		createAuditLog(ctx, f.auditRepo, auditEntry{
			actorID:     &admin.ID,
			action:      models.AuditActionCommissionStatusChanged,
			entityType:  models.AuditEntityCommission,
			entityID:    &id,
			description: fmt.Sprintf("commission %d status change to %s rejected", id, target),
			success:     false,
			errorMsg:    &errMsg,
		}, metadata)
		return nil, txError(err, "COMMISSION_STATUS_UPDATE_FAILED", "Failed to update commission status")
	}

	createAuditLog(ctx, f.auditRepo, auditEntry{
		actorID:     &admin.ID,
		action:      models.AuditActionCommissionStatusChanged,
		entityType:  models.AuditEntityCommission,
		entityID:    &commission.ID,
		description: fmt.Sprintf("commission %d moved from %s to %s", commission.ID, from, commission.Status),
		success:     true,
		details:     map[string]any{"from": from, "to": commission.Status, "amount": commission.Amount},
	}, metadata)

	out := toCommissionDTO(commission, true)
	return &out, nil
}

// Export renders the matching commissions as an xlsx workbook for admins
func (f *CommissionFlowImpl) Export(ctx context.Context, actor Actor, req *dto.ListCommissionsRequest) (string, []byte, error) {
	if req == nil {
		req = &dto.ListCommissionsRequest{}
	}
	admin, err := authorizeAdmin(ctx, f.userRepo, actor)
	if err != nil {
		return "", nil, err
	}
	filter, err := commissionFilterFor(admin, req)
	if err != nil {
		return "", nil, err
	}

	rows, err := f.commissionRepo.ByFilter(ctx, filter, "created_at ASC", maxExportRows, 0)
	if err != nil {
		return "", nil, NewBusinessError("COMMISSION_EXPORT_FAILED", "Failed to list commissions", err)
	}

	listingNumbers := make(map[uint]string)
	for _, r := range rows {
		if _, ok := listingNumbers[r.ListingID]; ok {
			continue
		}
		listing, err := f.listingRepo.ByID(ctx, r.ListingID)
		if err != nil {
			return "", nil, NewBusinessError("COMMISSION_EXPORT_FAILED", "Failed to load listing", err)
		}
		if listing != nil {
			listingNumbers[r.ListingID] = listing.ListingNumber
		} else {
			listingNumbers[r.ListingID] = ""
		}
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := "commissions"
	_ = xl.SetSheetName(xl.GetSheetName(0), sheet)

	header := []string{"id", "inquiry_id", "listing_id", "listing_number", "earner_id", "role", "amount", "currency", "status", "created_at", "paid_at"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	for i, r := range rows {
		paidAt := ""
		if r.PaidAt != nil {
			paidAt = r.PaidAt.UTC().Format(time.RFC3339)
		}
		record := []any{
			r.ID,
			r.InquiryID,
			r.ListingID,
			listingNumbers[r.ListingID],
			r.EarnerID,
			string(r.Role),
			r.Amount,
			utils.DefaultCurrency,
			string(r.Status),
			r.CreatedAt.UTC().Format(time.RFC3339),
			paidAt,
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = xl.SetSheetRow(sheet, cellRef, &record)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	filename := fmt.Sprintf("commissions_%s.xlsx", f.now().Format("20060102_150405"))
	return filename, buf.Bytes(), nil
}

// commissionFilterFor validates the request and scopes non-admins to their own rows
func commissionFilterFor(user *models.User, req *dto.ListCommissionsRequest) (models.CommissionFilter, error) {
	filter := models.CommissionFilter{
		InquiryID: req.InquiryID,
		ListingID: req.ListingID,
	}
	for _, raw := range req.Statuses {
		s := models.CommissionStatus(strings.ToUpper(strings.TrimSpace(raw)))
		if s == "" {
			continue
		}
		if !s.Valid() {
			return filter, NewBusinessErrorf(CodeValidation, "unknown status %q", ErrInvalidCommissionStatus, raw)
		}
		filter.Statuses = append(filter.Statuses, s)
	}
	if req.Role != nil {
		role := models.CommissionRole(strings.ToUpper(strings.TrimSpace(*req.Role)))
		if !role.Valid() {
			return filter, NewBusinessErrorf(CodeValidation, "unknown role %q", ErrInvalidCommissionRole, *req.Role)
		}
		filter.Role = &role
	}
	if user.IsAdmin() {
		filter.EarnerID = req.EarnerID
		return filter, nil
	}

	filter.EarnerID = &user.ID
	// An inquiry filter would reveal which inquiry a private-role row belongs to
	if filter.InquiryID != nil {
		if filter.Role != nil && !filter.Role.IsClientFacing() {
			return filter, NewBusinessError(CodeValidation, "inquiry_id cannot be combined with this role", ErrInquiryFilterNotAllowed)
		}
		filter.Roles = models.ClientFacingCommissionRoles
	}
	return filter, nil
}

// toCommissionDTO withholds the inquiry reference of private-role rows from non-admins
func toCommissionDTO(c *models.Commission, viewerIsAdmin bool) dto.CommissionDTO {
	out := dto.CommissionDTO{
		ID:        c.ID,
		ListingID: c.ListingID,
		EarnerID:  c.EarnerID,
		Role:      string(c.Role),
		Amount:    c.Amount,
		Status:    string(c.Status),
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.UTC().Format(time.RFC3339),
		PaidAt:    utils.FormatRFC3339Ptr(c.PaidAt),
	}
	if viewerIsAdmin || c.Role.IsClientFacing() {
		inquiryID := c.InquiryID
		out.InquiryID = &inquiryID
	}
	return out
}

// ParseStatusList splits a comma separated status query value
func ParseStatusList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
