package resource

import (
	"time"

	"github.com/yourorg/workstream/internal/domain"
)

func ptr(v float64) *float64 { return &v }

var (
	crmMutators = []domain.Role{domain.RoleAdmin, domain.RoleManager}
	crmReaders  = []domain.Role{domain.RoleAdmin, domain.RoleManager, domain.RoleEmployee}
	hrMutators  = []domain.Role{domain.RoleAdmin, domain.RoleHR}
	hrReaders   = []domain.Role{domain.RoleAdmin, domain.RoleHR, domain.RoleManager}
)

// personObject builds the common {name, avatar} value-object shape.
func personObject(name, label string, required bool) Field {
	return Field{
		Name:     name,
		Label:    label,
		Kind:     KindObject,
		Required: required,
		Primary:  "name",
		ObjectFields: []Field{
			{Name: "name", Label: "name", Kind: KindString},
			{Name: "avatar", Label: "avatar", Kind: KindString},
		},
	}
}

// Catalog returns the full set of resource descriptors the engine serves.
// The map is rebuilt on every call so tests can mutate their copy freely.
func Catalog() map[string]Descriptor {
	descs := []Descriptor{
		dealDescriptor(),
		ticketDescriptor(),
		candidateDescriptor(),
		jobDescriptor(),
		assetDescriptor(),
		resignationDescriptor(),
		trainerDescriptor(),
		trainingDescriptor(),
		trainingTypeDescriptor(),
		employeeDescriptor(),
	}
	out := make(map[string]Descriptor, len(descs))
	for _, d := range descs {
		out[d.Name] = d
	}
	return out
}

func dealDescriptor() Descriptor {
	return Descriptor{
		Name:       "deal",
		Label:      "Deal",
		Collection: "deals",
		Fields: []Field{
			{Name: "name", Label: "name", Kind: KindString, Required: true},
			personObject("owner", "owner", true),
			{
				Name:    "contact",
				Label:   "contact",
				Kind:    KindObject,
				Primary: "name",
				ObjectFields: []Field{
					{Name: "name", Label: "name", Kind: KindString},
					{Name: "email", Label: "email", Kind: KindString},
					{Name: "phone", Label: "phone", Kind: KindString},
				},
			},
			{Name: "dealValue", Label: "value", Kind: KindNumber, Required: true, Min: ptr(0)},
			{Name: "probability", Label: "probability", Kind: KindNumber, Min: ptr(0), Max: ptr(100)},
			{Name: "stage", Label: "stage", Kind: KindEnum, DefaultString: "New",
				Enum: []string{"New", "Qualified", "Proposal", "Negotiation", "Won", "Lost"}},
			{Name: "status", Label: "status", Kind: KindEnum, DefaultString: "Open",
				Enum: []string{"Open", "Won", "Lost"}},
			{Name: "dueDate", Label: "due date", Kind: KindDate},
			{Name: "expectedClosedDate", Label: "expected close date", Kind: KindDate,
				Required: true, Aliases: []string{"expectedClosingDate"}, NotBefore: "dueDate"},
			{Name: "tags", Label: "tags", Kind: KindStringList},
			{Name: "notes", Label: "notes", Kind: KindString},
		},
		SearchFields: []string{"name"},
		FilterFields: []string{"stage", "status"},
		DateField:    "createdAt",
		StatsGroups:  []string{"stage", "status"},
		Delete:       SoftDelete,
		MutateRoles:  crmMutators,
		ReadRoles:    crmReaders,
	}
}

func ticketDescriptor() Descriptor {
	return Descriptor{
		Name:       "ticket",
		Label:      "Ticket",
		Collection: "tickets",
		Fields: []Field{
			{Name: "subject", Label: "subject", Kind: KindString, Required: true},
			{Name: "description", Label: "description", Kind: KindString},
			{Name: "priority", Label: "priority", Kind: KindEnum, DefaultString: "Medium",
				Enum: []string{"Low", "Medium", "High", "Urgent"}},
			{Name: "status", Label: "status", Kind: KindEnum, DefaultString: "Open",
				Enum: []string{"Open", "In Progress", "Resolved", "Closed"}},
			personObject("assignedTo", "assignee", false),
			{
				Name:    "customer",
				Label:   "customer",
				Kind:    KindObject,
				Primary: "name",
				ObjectFields: []Field{
					{Name: "name", Label: "name", Kind: KindString},
					{Name: "email", Label: "email", Kind: KindString},
					{Name: "phone", Label: "phone", Kind: KindString},
				},
			},
			{Name: "dueDate", Label: "due date", Kind: KindDate},
			{Name: "tags", Label: "tags", Kind: KindStringList},
		},
		SearchFields: []string{"subject", "ticketNumber"},
		FilterFields: []string{"status", "priority"},
		DateField:    "createdAt",
		StatsGroups:  []string{"status", "priority"},
		Delete:       HardDelete,
		Seq:          &Sequence{Field: "ticketNumber", Prefix: "TIC-", Width: 3},
		MutateRoles:  crmMutators,
		ReadRoles:    crmReaders,
	}
}

func candidateDescriptor() Descriptor {
	return Descriptor{
		Name:       "candidate",
		Label:      "Candidate",
		Collection: "candidates",
		Fields: []Field{
			{Name: "name", Label: "name", Kind: KindString, Required: true},
			{Name: "email", Label: "email", Kind: KindString},
			{Name: "phone", Label: "phone", Kind: KindString},
			{Name: "position", Label: "position", Kind: KindString, Required: true},
			{Name: "stage", Label: "stage", Kind: KindEnum, DefaultString: "Applied",
				Enum: []string{"Applied", "Screening", "Interview", "Offer", "Hired", "Rejected"}},
			{Name: "skills", Label: "skills", Kind: KindStringList},
			{Name: "appliedDate", Label: "applied date", Kind: KindDate},
			{Name: "resumeUrl", Label: "resume URL", Kind: KindString},
		},
		SearchFields: []string{"name", "email", "position"},
		FilterFields: []string{"stage"},
		DateField:    "appliedDate",
		StatsGroups:  []string{"stage"},
		Delete:       SoftDelete,
		MutateRoles:  hrMutators,
		ReadRoles:    hrReaders,
	}
}

func jobDescriptor() Descriptor {
	return Descriptor{
		Name:       "job",
		Label:      "Job",
		Collection: "jobs",
		Fields: []Field{
			{Name: "title", Label: "title", Kind: KindString, Required: true},
			{Name: "department", Label: "department", Kind: KindString},
			{Name: "description", Label: "description", Kind: KindString},
			{Name: "location", Label: "location", Kind: KindString},
			{Name: "status", Label: "status", Kind: KindEnum, DefaultString: "Open",
				Enum: []string{"Open", "On Hold", "Closed"}},
			{Name: "openings", Label: "openings", Kind: KindNumber, Min: ptr(0), DefaultNumber: 1},
			{Name: "postedDate", Label: "posted date", Kind: KindDate},
			{Name: "closingDate", Label: "closing date", Kind: KindDate, NotBefore: "postedDate"},
		},
		SearchFields: []string{"title", "department"},
		FilterFields: []string{"status"},
		DateField:    "postedDate",
		StatsGroups:  []string{"status"},
		Delete:       SoftDelete,
		MutateRoles:  hrMutators,
		ReadRoles:    hrReaders,
	}
}

func assetDescriptor() Descriptor {
	return Descriptor{
		Name:       "asset",
		Label:      "Asset",
		Collection: "assets",
		Fields: []Field{
			{Name: "name", Label: "name", Kind: KindString, Required: true},
			{Name: "category", Label: "category", Kind: KindEnum, DefaultString: "Other",
				Enum: []string{"Laptop", "Phone", "Monitor", "Accessory", "Other"}},
			{Name: "serialNumber", Label: "serial number", Kind: KindString},
			{Name: "status", Label: "status", Kind: KindEnum, DefaultString: "Available",
				Enum: []string{"Available", "Assigned", "In Repair", "Retired"}},
			{
				// Each asset is the single source of truth for its own
				// assignment; moving it between employees is one update.
				Name:    "assignedTo",
				Label:   "assignee",
				Kind:    KindObject,
				Primary: "name",
				ObjectFields: []Field{
					{Name: "employeeId", Label: "employee id", Kind: KindString},
					{Name: "name", Label: "name", Kind: KindString},
				},
			},
			{Name: "purchaseDate", Label: "purchase date", Kind: KindDate},
			{Name: "warrantyMonths", Label: "warranty months", Kind: KindNumber, Min: ptr(0)},
			{Name: "warrantyEndDate", Label: "warranty end date", Kind: KindDate},
		},
		SearchFields:  []string{"name", "serialNumber"},
		FilterFields:  []string{"status", "category"},
		DateField:     "purchaseDate",
		StatsGroups:   []string{"status", "category"},
		Delete:        SoftDelete,
		Derive:        deriveAssetWarranty,
		DerivedFields: []string{"warrantyEndDate"},
		MutateRoles:   hrMutators,
		ReadRoles:     hrReaders,
	}
}

// deriveAssetWarranty recomputes warrantyEndDate whenever purchase date or
// warranty length changes. Without both inputs the derived value is nil.
func deriveAssetWarranty(doc domain.Document) {
	purchased, ok := doc["purchaseDate"].(time.Time)
	months := int(doc.Number("warrantyMonths"))
	if !ok || months <= 0 {
		doc["warrantyEndDate"] = nil
		return
	}
	doc["warrantyEndDate"] = purchased.AddDate(0, months, 0)
}

func resignationDescriptor() Descriptor {
	return Descriptor{
		Name:       "resignation",
		Label:      "Resignation",
		Collection: "resignations",
		Fields: []Field{
			{
				Name:     "employee",
				Label:    "employee",
				Kind:     KindObject,
				Required: true,
				Primary:  "name",
				ObjectFields: []Field{
					{Name: "employeeId", Label: "employee id", Kind: KindString},
					{Name: "name", Label: "name", Kind: KindString},
				},
			},
			{Name: "reason", Label: "reason", Kind: KindString},
			{Name: "status", Label: "status", Kind: KindEnum, DefaultString: "Pending",
				Enum: []string{"Pending", "Approved", "Rejected", "Completed"}},
			{Name: "noticeDate", Label: "notice date", Kind: KindDate},
			{Name: "lastWorkingDate", Label: "last working date", Kind: KindDate, NotBefore: "noticeDate"},
		},
		SearchFields: []string{"reason"},
		FilterFields: []string{"status"},
		DateField:    "noticeDate",
		StatsGroups:  []string{"status"},
		Delete:       SoftDelete,
		MutateRoles:  hrMutators,
		ReadRoles:    hrReaders,
	}
}

func trainerDescriptor() Descriptor {
	return Descriptor{
		Name:       "trainer",
		Label:      "Trainer",
		Collection: "trainers",
		Fields: []Field{
			{Name: "name", Label: "name", Kind: KindString, Required: true},
			{Name: "email", Label: "email", Kind: KindString},
			{Name: "phone", Label: "phone", Kind: KindString},
			{Name: "organization", Label: "organization", Kind: KindString},
			{Name: "expertise", Label: "expertise", Kind: KindStringList},
		},
		SearchFields: []string{"name", "organization"},
		DateField:    "createdAt",
		Delete:       SoftDelete,
		MutateRoles:  hrMutators,
		ReadRoles:    hrReaders,
	}
}

func trainingDescriptor() Descriptor {
	return Descriptor{
		Name:       "training",
		Label:      "Training",
		Collection: "trainings",
		Fields: []Field{
			{Name: "title", Label: "title", Kind: KindString, Required: true},
			{
				Name:    "trainer",
				Label:   "trainer",
				Kind:    KindObject,
				Primary: "name",
				ObjectFields: []Field{
					{Name: "name", Label: "name", Kind: KindString},
					{Name: "email", Label: "email", Kind: KindString},
				},
			},
			{Name: "mode", Label: "mode", Kind: KindEnum, DefaultString: "Onsite",
				Enum: []string{"Onsite", "Remote", "Hybrid"}},
			{Name: "status", Label: "status", Kind: KindEnum, DefaultString: "Scheduled",
				Enum: []string{"Scheduled", "In Progress", "Completed", "Cancelled"}},
			{Name: "participants", Label: "participants", Kind: KindNumber, Min: ptr(0)},
			{Name: "startDate", Label: "start date", Kind: KindDate},
			{Name: "endDate", Label: "end date", Kind: KindDate, NotBefore: "startDate"},
		},
		SearchFields: []string{"title"},
		FilterFields: []string{"status", "mode"},
		DateField:    "startDate",
		StatsGroups:  []string{"status", "mode"},
		Delete:       SoftDelete,
		MutateRoles:  hrMutators,
		ReadRoles:    hrReaders,
	}
}

func trainingTypeDescriptor() Descriptor {
	return Descriptor{
		Name:       "trainingtype",
		Label:      "Training type",
		Collection: "training_types",
		Fields: []Field{
			{Name: "name", Label: "name", Kind: KindString, Required: true},
			{Name: "description", Label: "description", Kind: KindString},
		},
		SearchFields: []string{"name"},
		DateField:    "createdAt",
		Delete:       HardDelete,
		MutateRoles:  hrMutators,
		ReadRoles:    hrReaders,
	}
}

func employeeDescriptor() Descriptor {
	return Descriptor{
		Name:       "employee",
		Label:      "Employee",
		Collection: "employees",
		Fields: []Field{
			{Name: "name", Label: "name", Kind: KindString, Required: true},
			{Name: "email", Label: "email", Kind: KindString},
			{Name: "department", Label: "department", Kind: KindString},
			{Name: "position", Label: "position", Kind: KindString},
			{Name: "avatar", Label: "avatar", Kind: KindString},
			{Name: "status", Label: "status", Kind: KindEnum, DefaultString: "Active",
				Enum: []string{"Active", "On Leave", "Resigned"}},
			{Name: "joinDate", Label: "join date", Kind: KindDate},
		},
		SearchFields: []string{"name", "email", "department"},
		FilterFields: []string{"status", "department"},
		DateField:    "joinDate",
		StatsGroups:  []string{"status"},
		Delete:       SoftDelete,
		MutateRoles:  hrMutators,
		ReadRoles:    hrReaders,
	}
}
