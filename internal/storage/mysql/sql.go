package mysql

const upsertHostelSQL = `
INSERT INTO hostels
  (id, name, type, gender, price, rating, review_count, distance_km, featured, amenities, raw)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  name         = VALUES(name),
  type         = VALUES(type),
  gender       = VALUES(gender),
  price        = VALUES(price),
  rating       = VALUES(rating),
  review_count = VALUES(review_count),
  distance_km  = VALUES(distance_km),
  featured     = VALUES(featured),
  amenities    = VALUES(amenities),
  raw          = VALUES(raw),
  updated_at   = CURRENT_TIMESTAMP
`

const insertMissSQL = `
INSERT INTO ingest_misses (id, http_status, reason)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE reason = VALUES(reason), seen_at = CURRENT_TIMESTAMP
`

const insertBookingSQL = `
INSERT INTO bookings
  (id, user_id, hostel_id, room_type, status, total_amount, amount_paid, amount_due, check_in, check_out, next_payment_date)
VALUES
  (?, ?, ?, ?, 'active', ?, 0, ?, ?, ?, ?)
`

const upsertProfileSQL = `
INSERT INTO profiles (user_id, name, email, phone, student_id, gender)
VALUES (?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  name       = VALUES(name),
  email      = VALUES(email),
  phone      = VALUES(phone),
  student_id = VALUES(student_id),
  gender     = VALUES(gender)
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// The raw document is the source of truth for readers; indexed columns exist
// for ad-hoc queries and joins.
const listHostelsSQL = `
SELECT id, raw
FROM hostels
ORDER BY name, id
`

const getHostelSQL = `
SELECT id, raw
FROM hostels
WHERE id = ?
`

// Newest first, like the dashboard shows them.
const listBookingsForUserSQL = `
SELECT
  b.id,
  b.user_id,
  b.hostel_id,
  h.name,
  b.room_type,
  b.room_number,
  b.status,
  b.total_amount,
  b.amount_paid,
  b.amount_due,
  b.check_in,
  b.check_out,
  b.next_payment_date
FROM bookings b
LEFT JOIN hostels h ON h.id = b.hostel_id
WHERE b.user_id = ?
ORDER BY b.created_at DESC, b.id
`

const getProfileSQL = `
SELECT user_id, name, email, phone, student_id, gender
FROM profiles
WHERE user_id = ?
`
