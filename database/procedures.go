package database

var settleProcedureSQL = map[string][]string{
	"postgres": {`
CREATE OR REPLACE FUNCTION settle_parlay(p_parlay_id text, p_is_win boolean, p_payout numeric)
RETURNS numeric
LANGUAGE plpgsql
AS $$
DECLARE
	v_stake numeric;
	v_profit numeric;
BEGIN
	SELECT stake INTO v_stake FROM parlays WHERE id = p_parlay_id AND status = 'open' FOR UPDATE;
	IF NOT FOUND THEN
		RAISE EXCEPTION 'parlay % is not open', p_parlay_id;
	END IF;

	IF p_is_win THEN
		v_profit := p_payout - v_stake;
	ELSE
		v_profit := -v_stake;
	END IF;

	UPDATE parlays
	SET status = CASE WHEN p_is_win THEN 'win' ELSE 'loss' END,
		result_amount = CASE WHEN p_is_win THEN p_payout ELSE 0 END,
		settled_at = now()
	WHERE id = p_parlay_id;

	INSERT INTO result (parlay_id, win, lose, created_at) VALUES (p_parlay_id, p_is_win, NOT p_is_win, now());
	INSERT INTO pnl (parlay_id, margin, profit, created_at) VALUES (p_parlay_id, v_stake, v_profit, now());

	RETURN v_profit;
END;
$$`},
	"mysql": {
		`DROP PROCEDURE IF EXISTS settle_parlay`,
		`
CREATE PROCEDURE settle_parlay(IN p_parlay_id VARCHAR(36), IN p_is_win BOOLEAN, IN p_payout DECIMAL(12,2))
BEGIN
	DECLARE v_stake DECIMAL(12,2) DEFAULT NULL;
	DECLARE EXIT HANDLER FOR SQLEXCEPTION
	BEGIN
		ROLLBACK;
		RESIGNAL;
	END;

	START TRANSACTION;
	SELECT stake INTO v_stake FROM parlays WHERE id = p_parlay_id AND status = 'open' FOR UPDATE;
	IF v_stake IS NULL THEN
		SIGNAL SQLSTATE '45000' SET MESSAGE_TEXT = 'parlay is not open';
	END IF;

	UPDATE parlays
	SET status = IF(p_is_win, 'win', 'loss'),
		result_amount = IF(p_is_win, p_payout, 0),
		settled_at = UTC_TIMESTAMP()
	WHERE id = p_parlay_id;

	INSERT INTO result (parlay_id, win, lose, created_at) VALUES (p_parlay_id, p_is_win, NOT p_is_win, UTC_TIMESTAMP());
	INSERT INTO pnl (parlay_id, margin, profit, created_at)
	VALUES (p_parlay_id, v_stake, IF(p_is_win, p_payout - v_stake, -v_stake), UTC_TIMESTAMP());
	COMMIT;
END`},
	"sqlserver": {`
CREATE OR ALTER PROCEDURE settle_parlay @p_parlay_id NVARCHAR(36), @p_is_win BIT, @p_payout DECIMAL(12,2)
AS
BEGIN
	SET NOCOUNT ON;
	SET XACT_ABORT ON;
	DECLARE @v_stake DECIMAL(12,2);

	BEGIN TRANSACTION;
	SELECT @v_stake = stake FROM parlays WITH (UPDLOCK) WHERE id = @p_parlay_id AND status = 'open';
	IF @v_stake IS NULL
	BEGIN
		ROLLBACK TRANSACTION;
		THROW 50001, 'parlay is not open', 1;
	END

	UPDATE parlays
	SET status = CASE WHEN @p_is_win = 1 THEN 'win' ELSE 'loss' END,
		result_amount = CASE WHEN @p_is_win = 1 THEN @p_payout ELSE 0 END,
		settled_at = SYSUTCDATETIME()
	WHERE id = @p_parlay_id;

	INSERT INTO result (parlay_id, win, lose, created_at) VALUES (@p_parlay_id, @p_is_win, 1 - @p_is_win, SYSUTCDATETIME());
	INSERT INTO pnl (parlay_id, margin, profit, created_at)
	VALUES (@p_parlay_id, @v_stake, CASE WHEN @p_is_win = 1 THEN @p_payout - @v_stake ELSE -@v_stake END, SYSUTCDATETIME());
	COMMIT TRANSACTION;
END`},
}
