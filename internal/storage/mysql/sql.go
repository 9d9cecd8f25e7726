package mysql

const insertReservationSQL = `
INSERT INTO reservations
  (reservation_id, owner_id, check_in, check_out, adults, children,
   status, payment_status, nights, nightly_rate, cleaning_fee, total_amount,
   special_requests, created_at, updated_at, cancelled_at, cancellation_reason, refund_amount)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Guarded on current status; zero rows affected means the condition failed.
const updateReservationSQL = `
UPDATE reservations SET
  owner_id            = ?,
  check_in            = ?,
  check_out           = ?,
  adults              = ?,
  children            = ?,
  status              = ?,
  payment_status      = ?,
  nights              = ?,
  nightly_rate        = ?,
  cleaning_fee        = ?,
  total_amount        = ?,
  special_requests    = ?,
  updated_at          = ?,
  cancelled_at        = ?,
  cancellation_reason = ?,
  refund_amount       = ?
WHERE reservation_id = ? AND status = ?
`

// Lazy row creation: an absent calendar entry is equivalent to AVAILABLE.
const ensureCalendarRowSQL = `
INSERT IGNORE INTO calendar_entries (day, status, updated_at)
VALUES (?, 'AVAILABLE', ?)
`

const claimDateSQL = `
UPDATE calendar_entries
SET status = 'BOOKED', reservation_id = ?, updated_at = ?
WHERE day = ? AND status = 'AVAILABLE'
`

const releaseOwnedDateSQL = `
UPDATE calendar_entries
SET status = 'AVAILABLE', reservation_id = NULL, updated_at = ?
WHERE day = ? AND status = 'BOOKED' AND reservation_id = ?
`

const releaseDateSQL = `
INSERT INTO calendar_entries (day, status, updated_at)
VALUES (?, 'AVAILABLE', ?)
ON DUPLICATE KEY UPDATE
  status         = 'AVAILABLE',
  reservation_id = NULL,
  block_reason   = NULL,
  updated_at     = VALUES(updated_at)
`

// Re-blocking an already BLOCKED day is a no-op update; only BOOKED resists.
const blockDateSQL = `
UPDATE calendar_entries
SET status = 'BLOCKED', block_reason = ?, reservation_id = NULL, updated_at = ?
WHERE day = ? AND status <> 'BOOKED'
`

const getReservationSQL = `
SELECT reservation_id, owner_id, check_in, check_out, adults, children,
       status, payment_status, nights, nightly_rate, cleaning_fee, total_amount,
       special_requests, created_at, updated_at, cancelled_at, cancellation_reason, refund_amount
FROM reservations
WHERE reservation_id = ?
`

const listByOwnerSQL = `
SELECT reservation_id, check_in, check_out, status, total_amount
FROM reservations
WHERE owner_id = ?
ORDER BY check_in
`

const listConfirmedEndedSQL = `
SELECT reservation_id, owner_id, check_in, check_out, adults, children,
       status, payment_status, nights, nightly_rate, cleaning_fee, total_amount,
       special_requests, created_at, updated_at, cancelled_at, cancellation_reason, refund_amount
FROM reservations
WHERE status = 'CONFIRMED' AND check_out <= ?
ORDER BY check_out
`

const getCalendarRangeSQL = `
SELECT day, status, reservation_id, block_reason, updated_at
FROM calendar_entries
WHERE day BETWEEN ? AND ?
ORDER BY day
`

const listActiveSeasonsSQL = `
SELECT season_id, name, start_date, end_date, nightly_rate, minimum_nights, cleaning_fee, active
FROM seasons
WHERE active = 1
ORDER BY start_date
`

const upsertSeasonSQL = `
INSERT INTO seasons
  (season_id, name, start_date, end_date, nightly_rate, minimum_nights, cleaning_fee, active)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  name           = VALUES(name),
  start_date     = VALUES(start_date),
  end_date       = VALUES(end_date),
  nightly_rate   = VALUES(nightly_rate),
  minimum_nights = VALUES(minimum_nights),
  cleaning_fee   = VALUES(cleaning_fee),
  active         = VALUES(active)
`
