package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/noah-isme/academic-help-api/internal/models"
)

func ptr[T any](v T) *T { return &v }

func day(d, hour int) time.Time {
	return time.Date(2025, time.February, d, hour, 0, 0, 0, time.UTC)
}

// DemoRequests returns the sample requests used for local development.
func DemoRequests() []models.ServiceRequest {
	return []models.ServiceRequest{
		{
			ID:          models.FormatRequestID(1),
			OwnerID:     "mhs-001",
			ServiceID:   "1",
			ServiceName: "Surat Aktif Kuliah",
			Title:       "Permohonan Surat Aktif Kuliah",
			Description: "Saya membutuhkan surat aktif kuliah untuk keperluan pengajuan beasiswa.",
			Category:    models.CategoryActiveLetter,
			Status:      models.RequestStatusCompleted,
			Priority:    models.PriorityHigh,
			CreatedAt:   day(1, 8),
			UpdatedAt:   day(2, 10),
			CompletedAt: ptr(day(2, 10)),
			Notes:       ptr("Surat sudah dapat diambil di bagian akademik."),
			ApprovedBy:  ptr("admin-001"),
			Attachments: []string{"ktm.pdf"},
		},
		{
			ID:          models.FormatRequestID(2),
			OwnerID:     "mhs-001",
			ServiceID:   "2",
			ServiceName: "Surat Cuti Akademik",
			Title:       "Permohonan Cuti Akademik",
			Description: "Mengajukan cuti akademik satu semester karena alasan kesehatan.",
			Category:    models.CategoryLeave,
			Status:      models.RequestStatusProcessing,
			Priority:    models.PriorityMedium,
			CreatedAt:   day(5, 9),
			UpdatedAt:   day(8, 14),
			Notes:       ptr("Dokumen sedang diverifikasi."),
			ApprovedBy:  ptr("dosen-001"),
			Attachments: []string{"surat-dokter.pdf"},
		},
		{
			ID:          models.FormatRequestID(3),
			OwnerID:     "mhs-001",
			ServiceID:   "3",
			ServiceName: "Transkrip Akademik",
			Title:       "Permohonan Transkrip Akademik",
			Description: "Membutuhkan transkrip nilai resmi untuk melamar program magang.",
			Category:    models.CategoryTranscript,
			Status:      models.RequestStatusPending,
			Priority:    models.PriorityHigh,
			CreatedAt:   day(10, 11),
			UpdatedAt:   day(10, 11),
			Attachments: []string{},
		},
	}
}

// DemoNotifications returns the sample notifications used for local development.
func DemoNotifications() []models.Notification {
	return []models.Notification{
		{
			ID:               "notif-001",
			UserID:           "mhs-001",
			Title:            "Pengajuan Diterima",
			Message:          "Pengajuan Surat Aktif Kuliah Anda telah diterima dan sedang diproses",
			Type:             models.NotificationSuccess,
			RelatedRequestID: ptr(models.FormatRequestID(1)),
			IsRead:           true,
			CreatedAt:        day(2, 10),
		},
		{
			ID:               "notif-002",
			UserID:           "mhs-001",
			Title:            "Update Status Pengajuan",
			Message:          `Status pengajuan Cuti Akademik Anda berubah menjadi "Diproses"`,
			Type:             models.NotificationInfo,
			RelatedRequestID: ptr(models.FormatRequestID(2)),
			IsRead:           false,
			CreatedAt:        day(8, 14),
		},
	}
}

// SeedDemo loads the demo data and moves the sequence past the seeded ids.
func SeedDemo(ctx context.Context, requests *MemoryRequestRepository, notifications *MemoryNotificationRepository) error {
	demo := DemoRequests()
	for i := range demo {
		if err := requests.Upsert(ctx, &demo[i]); err != nil {
			return fmt.Errorf("seed request %s: %w", demo[i].ID, err)
		}
	}
	requests.AdvanceSequence(int64(len(demo)))

	for _, n := range DemoNotifications() {
		n := n
		if err := notifications.Create(ctx, &n); err != nil {
			return fmt.Errorf("seed notification %s: %w", n.ID, err)
		}
	}
	return nil
}
