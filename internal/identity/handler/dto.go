package handler

import (
	"time"

	"civreg/internal/identity/models"
	"civreg/internal/identity/service"
	"civreg/pkg/domain"
)

const dateLayout = "2006-01-02"

type createIdentityRequest struct {
	NationalID string `json:"national_id"`
	Name       string `json:"name"`
	Gender     string `json:"gender"`
	BirthDate  string `json:"birth_date"`
	Mobile     string `json:"mobile"`
	Email      string `json:"email,omitempty"`
}

func (req createIdentityRequest) toInput(now time.Time) (service.NewIdentity, error) {
	id, err := domain.ParseNationalID(req.NationalID)
	if err != nil {
		return service.NewIdentity{}, err
	}
	gender, err := domain.ParseGender(req.Gender)
	if err != nil {
		return service.NewIdentity{}, err
	}
	dob, err := domain.ParseBirthDate(req.BirthDate, now)
	if err != nil {
		return service.NewIdentity{}, err
	}
	mobile, err := domain.ParsePhone(req.Mobile)
	if err != nil {
		return service.NewIdentity{}, err
	}
	return service.NewIdentity{
		NationalID: id,
		Name:       req.Name,
		Gender:     gender,
		BirthDate:  dob,
		Mobile:     mobile,
		Email:      req.Email,
	}, nil
}

type updateContactRequest struct {
	Mobile string `json:"mobile"`
	Email  string `json:"email,omitempty"`
}

type identityResponse struct {
	NationalID string `json:"national_id"`
	Name       string `json:"name"`
	Gender     string `json:"gender"`
	BirthDate  string `json:"birth_date"`
	Mobile     string `json:"mobile"`
	Email      string `json:"email,omitempty"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

func toIdentityResponse(identity models.Identity) identityResponse {
	return identityResponse{
		NationalID: identity.NationalID.String(),
		Name:       identity.Name,
		Gender:     identity.Gender.String(),
		BirthDate:  identity.BirthDate.Format(dateLayout),
		Mobile:     identity.Mobile.String(),
		Email:      identity.Email,
		CreatedAt:  identity.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  identity.UpdatedAt.Format(time.RFC3339),
	}
}

type listIdentitiesResponse struct {
	Identities []identityResponse `json:"identities"`
}

type profileResponse struct {
	Identity     identityResponse      `json:"identity"`
	HasPhoto     bool                  `json:"has_photo"`
	TaxIDs       []taxIDResponse       `json:"tax_ids"`
	VoterRecords []voterRecordResponse `json:"voter_records"`
	SimRecords   []simRecordResponse   `json:"sim_records"`
	BankAccounts []bankAccountResponse `json:"bank_accounts"`
}

func toProfileResponse(p service.Profile) profileResponse {
	out := profileResponse{
		Identity:     toIdentityResponse(p.Identity),
		HasPhoto:     p.HasPhoto,
		TaxIDs:       make([]taxIDResponse, 0, len(p.TaxIDs)),
		VoterRecords: make([]voterRecordResponse, 0, len(p.VoterRecords)),
		SimRecords:   make([]simRecordResponse, 0, len(p.SimRecords)),
		BankAccounts: make([]bankAccountResponse, 0, len(p.BankAccounts)),
	}
	for _, rec := range p.TaxIDs {
		out.TaxIDs = append(out.TaxIDs, toTaxIDResponse(rec))
	}
	for _, rec := range p.VoterRecords {
		out.VoterRecords = append(out.VoterRecords, toVoterRecordResponse(rec))
	}
	for _, rec := range p.SimRecords {
		out.SimRecords = append(out.SimRecords, toSimRecordResponse(rec))
	}
	for _, rec := range p.BankAccounts {
		out.BankAccounts = append(out.BankAccounts, toBankAccountResponse(rec))
	}
	return out
}

type addTaxIDRequest struct {
	Code      string `json:"code"`
	IssueDate string `json:"issue_date"`
	Status    string `json:"status,omitempty"`
}

type taxIDResponse struct {
	Code       string `json:"code"`
	IssueDate  string `json:"issue_date"`
	Status     string `json:"status"`
	NationalID string `json:"national_id"`
}

func toTaxIDResponse(rec models.TaxID) taxIDResponse {
	return taxIDResponse{
		Code:       rec.Code.String(),
		IssueDate:  rec.IssueDate.Format(dateLayout),
		Status:     rec.Status,
		NationalID: rec.NationalID.String(),
	}
}

type addVoterRecordRequest struct {
	ElectoralCode    string `json:"electoral_code"`
	Address          string `json:"address"`
	RegistrationType string `json:"registration_type"`
	IssueDate        string `json:"issue_date,omitempty"`
	Status           string `json:"status,omitempty"`
}

type voterRecordResponse struct {
	ElectoralCode    string `json:"electoral_code"`
	NationalID       string `json:"national_id"`
	HolderName       string `json:"holder_name"`
	Address          string `json:"address"`
	RegistrationType string `json:"registration_type"`
	IssueDate        string `json:"issue_date"`
	Status           string `json:"status"`
	Primary          bool   `json:"primary"`
}

func toVoterRecordResponse(rec models.VoterRecord) voterRecordResponse {
	return voterRecordResponse{
		ElectoralCode:    rec.ElectoralCode.String(),
		NationalID:       rec.NationalID.String(),
		HolderName:       rec.HolderName,
		Address:          rec.Address,
		RegistrationType: rec.RegistrationType.String(),
		IssueDate:        rec.IssueDate.Format(dateLayout),
		Status:           rec.Status,
		Primary:          rec.Primary,
	}
}

type addSimRecordRequest struct {
	SimNumber string `json:"sim_number"`
	Provider  string `json:"provider"`
	Status    string `json:"status,omitempty"`
}

type simRecordResponse struct {
	SimNumber  string `json:"sim_number"`
	Provider   string `json:"provider"`
	Status     string `json:"status"`
	NationalID string `json:"national_id"`
}

func toSimRecordResponse(rec models.SimRecord) simRecordResponse {
	return simRecordResponse{
		SimNumber:  rec.SimNumber.String(),
		Provider:   rec.Provider,
		Status:     rec.Status,
		NationalID: rec.NationalID.String(),
	}
}

type addBankAccountRequest struct {
	AccountNumber string `json:"account_number"`
	BankName      string `json:"bank_name"`
	AccountType   string `json:"account_type"`
	BranchCode    string `json:"branch_code"`
}

type bankAccountResponse struct {
	AccountNumber string `json:"account_number"`
	BankName      string `json:"bank_name"`
	AccountType   string `json:"account_type"`
	BranchCode    string `json:"branch_code"`
	NationalID    string `json:"national_id"`
}

func toBankAccountResponse(rec models.BankAccount) bankAccountResponse {
	return bankAccountResponse{
		AccountNumber: rec.AccountNumber,
		BankName:      rec.BankName,
		AccountType:   rec.AccountType,
		BranchCode:    rec.BranchCode.String(),
		NationalID:    rec.NationalID.String(),
	}
}

type attachPhotoRequest struct {
	Photo  string `json:"photo"`
	Format string `json:"format"`
}
