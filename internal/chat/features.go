package chat

import "github.com/bizchat/server/internal/model"

// catalog is the fixed feature list served by /api/features
var catalog = []model.Feature{
	{
		ID:          "messaging",
		Name:        "المراسلة",
		Description: "إرسال واستقبال الرسائل النصية والوسائط",
		IsEnabled:   true,
		Category:    "communication",
		Priority:    1,
	},
	{
		ID:          "stories",
		Name:        "الحالات",
		Description: "مشاركة الحالات والصور المؤقتة",
		IsEnabled:   true,
		Category:    "social",
		Priority:    2,
	},
	{
		ID:          "stores",
		Name:        "المتاجر",
		Description: "إنشاء وإدارة المتاجر الإلكترونية",
		IsEnabled:   true,
		Category:    "commerce",
		Priority:    3,
	},
}

// ListFeatures returns a copy of the static feature catalog. No store is involved.
func (s *Service) ListFeatures() []model.Feature {
	return append([]model.Feature(nil), catalog...)
}
