package service

import (
	"context"
	"strings"

	"github.com/noah-isme/academic-help-api/internal/models"
	appErrors "github.com/noah-isme/academic-help-api/pkg/errors"
)

// DefaultCatalog lists the academic services offered to students.
func DefaultCatalog() []models.AcademicService {
	return []models.AcademicService{
		{
			ID:                "1",
			Name:              "Surat Aktif Kuliah",
			Description:       "Surat keterangan bahwa mahasiswa aktif mengikuti perkuliahan pada semester berjalan.",
			Category:          models.CategoryActiveLetter,
			ProcessingTime:    "1-2 hari kerja",
			RequiredDocuments: []string{"KTM", "Kartu Tanda Penduduk"},
			IsAvailable:       true,
		},
		{
			ID:                "2",
			Name:              "Surat Cuti Akademik",
			Description:       "Permohonan penghentian studi sementara untuk jangka waktu tertentu.",
			Category:          models.CategoryLeave,
			ProcessingTime:    "3-5 hari kerja",
			RequiredDocuments: []string{"Justifikasi alasan", "Surat keterangan penunjang"},
			IsAvailable:       true,
		},
		{
			ID:                "3",
			Name:              "Transkrip Akademik",
			Description:       "Dokumen resmi berisi daftar nilai seluruh mata kuliah yang telah ditempuh.",
			Category:          models.CategoryTranscript,
			ProcessingTime:    "2-3 hari kerja",
			RequiredDocuments: []string{"KTM"},
			IsAvailable:       true,
		},
		{
			ID:                "4",
			Name:              "Alih Daya Program Studi",
			Description:       "Permohonan perpindahan program studi di lingkungan universitas.",
			Category:          models.CategoryTransfer,
			ProcessingTime:    "5-7 hari kerja",
			RequiredDocuments: []string{"KTM", "Transkrip akademik", "Surat rekomendasi dosen"},
			IsAvailable:       true,
		},
	}
}

// CatalogService exposes the read-only service catalog.
type CatalogService struct {
	services []models.AcademicService
	byID     map[string]int
}

// NewCatalogService builds a catalog; a nil slice uses DefaultCatalog.
func NewCatalogService(services []models.AcademicService) *CatalogService {
	if services == nil {
		services = DefaultCatalog()
	}
	byID := make(map[string]int, len(services))
	for i, svc := range services {
		byID[svc.ID] = i
	}
	return &CatalogService{services: services, byID: byID}
}

// List returns every catalog entry, optionally only available ones.
func (s *CatalogService) List(_ context.Context, onlyAvailable bool) []models.AcademicService {
	items := make([]models.AcademicService, 0, len(s.services))
	for _, svc := range s.services {
		if onlyAvailable && !svc.IsAvailable {
			continue
		}
		svc.RequiredDocuments = append([]string(nil), svc.RequiredDocuments...)
		items = append(items, svc)
	}
	return items
}

// Get returns a catalog entry by id.
func (s *CatalogService) Get(_ context.Context, id string) (*models.AcademicService, error) {
	idx, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "service not found")
	}
	svc := s.services[idx]
	svc.RequiredDocuments = append([]string(nil), svc.RequiredDocuments...)
	return &svc, nil
}
